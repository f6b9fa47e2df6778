package entity

type BackupRequest struct {
	Shop string `json:"shop"`
	Selection
	All bool `json:"all"`
}

type BackupResponse struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`
}

type RestoreRequest struct {
	Policy     RestorePolicy `json:"policy"`
	Categories []ItemType    `json:"categories"`
	ItemIDs    []int64       `json:"item_ids"`
}

type RestoreResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

type RestoreJobResponse struct {
	RestoreJob
	Logs []RestoreLog `json:"logs"`
}

type CompareResponse struct {
	RunID   string                             `json:"run_id"`
	Results map[ItemType][]CompareResult       `json:"results"`
	Summary map[ItemType]map[CompareStatus]int `json:"summary"`
}

type ExportResponse struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Uploaded bool   `json:"uploaded"`
}

type S3PresignedURLRequest struct {
	Name       string `json:"name"`
	Expiration int    `json:"expiration"`
}

type S3PresignedURLResponse struct {
	URL string `json:"url"`
}

// AllSelection enables every category including image capture.
func AllSelection() Selection {
	return Selection{
		IncludeProducts:      true,
		IncludeProductImages: true,
		IncludeBlogs:         true,
		IncludeBlogImages:    true,
		IncludeCollections:   true,
		IncludePages:         true,
		IncludeMenus:         true,
		IncludeRedirects:     true,
		IncludeMetafields:    true,
		IncludeDiscounts:     true,
		IncludeOrders:        true,
		IncludeCustomers:     true,
	}
}
