package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookclub/model"
)

// BookSearchService 外部图书目录检索客户端（Google Books 兼容接口）
type BookSearchService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewBookSearchService(baseURL, apiKey string) *BookSearchService {
	return &BookSearchService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Search GET {base}/volumes?q=<query>&maxResults=<n>&key=<apiKey>
func (s *BookSearchService) Search(query string, maxResults int) (*model.VolumeSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if maxResults <= 0 || maxResults > 40 {
		maxResults = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}

	resp, err := s.client.Get(s.baseURL + "/volumes?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("book search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book search failed with status %d", resp.StatusCode)
	}

	var result model.VolumeSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if result.Items == nil {
		result.Items = []model.BookVolume{}
	}
	return &result, nil
}
