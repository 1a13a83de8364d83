package admin

// FolderChange records one object relocation attempt. References counts the content
// store rows rewritten to the new path.
type FolderChange struct {
	OldPath    string `json:"oldPath"`
	NewPath    string `json:"newPath"`
	Moved      bool   `json:"moved"`
	Updated    bool   `json:"updated"`
	References int64  `json:"references"`
	Error      string `json:"error,omitempty"`
}

// ReorganizationReport is the result of one folder reorganization pass.
type ReorganizationReport struct {
	FoldersProcessed   int            `json:"foldersProcessed"`
	FilesProcessed     int            `json:"filesProcessed"`
	FilesMoved         int            `json:"filesMoved"`
	FilesUpdated       int            `json:"filesUpdated"`
	FoldersDeleted     int            `json:"foldersDeleted"`
	Skipped            int            `json:"skipped"`
	Errors             []string       `json:"errors"`
	ChangeLog          []FolderChange `json:"changeLog"`
	NewFolderStructure []string       `json:"newFolderStructure"`
}

// NewReorganizationReport returns a report with non-nil lists.
func NewReorganizationReport() *ReorganizationReport {
	return &ReorganizationReport{
		Errors:             []string{},
		ChangeLog:          []FolderChange{},
		NewFolderStructure: []string{},
	}
}
