package model

// 图书检索接口的响应结构（Google Books 兼容）

// VolumeSearchResult 检索结果
type VolumeSearchResult struct {
	TotalItems int          `json:"totalItems"`
	Items      []BookVolume `json:"items"`
}

// BookVolume 单条图书记录
type BookVolume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo 图书详细信息
type VolumeInfo struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle,omitempty"`
	Authors       []string    `json:"authors,omitempty"`
	Publisher     string      `json:"publisher,omitempty"`
	PublishedDate string      `json:"publishedDate,omitempty"`
	Description   string      `json:"description,omitempty"`
	PageCount     int         `json:"pageCount,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	ImageLinks    *ImageLinks `json:"imageLinks,omitempty"`
	AverageRating float64     `json:"averageRating,omitempty"`
	RatingsCount  int         `json:"ratingsCount,omitempty"`
	InfoLink      string      `json:"infoLink,omitempty"`
}

// ImageLinks 封面图片的各档规格
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Large          string `json:"large,omitempty"`
	ExtraLarge     string `json:"extraLarge,omitempty"`
}

// BestAvailableURL 按固定优先级取第一个可用的封面地址
// 顺序：thumbnail > smallThumbnail > small > medium > large > extraLarge
func (l *ImageLinks) BestAvailableURL() string {
	if l == nil {
		return ""
	}
	for _, u := range []string{l.Thumbnail, l.SmallThumbnail, l.Small, l.Medium, l.Large, l.ExtraLarge} {
		if u != "" {
			return u
		}
	}
	return ""
}

// PrimaryAuthor 第一作者（展示用）
func (v *VolumeInfo) PrimaryAuthor() string {
	if len(v.Authors) == 0 {
		return ""
	}
	return v.Authors[0]
}
