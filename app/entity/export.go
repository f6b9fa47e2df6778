package entity

// ExportArchive describes one export bundle on local storage.
type ExportArchive struct {
	Name      string `json:"name"`
	Path      string `json:"-"`
	RunID     string `json:"run_id"`
	Shop      string `json:"shop"`
	TimeStamp int64  `json:"ts"`
	Size      int64  `json:"size"`
}

type ExportManifest struct {
	RunID      string           `json:"run_id"`
	Shop       string           `json:"shop"`
	Status     RunStatus        `json:"status"`
	CreatedAt  int64            `json:"created_at"`
	ExportedAt int64            `json:"exported_at"`
	TotalSize  int64            `json:"total_size"`
	Counts     map[ItemType]int `json:"counts"`
	Assets     int              `json:"assets"`
}
