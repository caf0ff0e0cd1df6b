package dto

// ImageURLRequestDTO requests signed URLs for one hero, a batch of heroes,
// or one story page. Exactly one mode is expected; precedence when several
// are set is heroIds, then heroId, then storyId.
type ImageURLRequestDTO struct {
	HeroID     string   `json:"heroId,omitempty" validate:"omitempty,uuid"`
	HeroIDs    []string `json:"heroIds,omitempty" validate:"omitempty,min=1,max=50,dive,uuid"`
	StoryID    string   `json:"storyId,omitempty" validate:"omitempty,uuid"`
	PageNumber int      `json:"pageNumber,omitempty" validate:"omitempty,min=1"`
}

// ImageURLResponseDTO carries a signed URL for single-asset requests.
type ImageURLResponseDTO struct {
	URL string `json:"url"`
}

// ImageURLBatchResponseDTO maps hero ids to signed URLs. Unowned ids are
// absent, not errored.
type ImageURLBatchResponseDTO struct {
	URLs map[string]string `json:"urls"`
}
