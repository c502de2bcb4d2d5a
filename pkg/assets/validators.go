package assets

type FileQuery struct {
	Path string `query:"path" json:"path" validate:"required,max=4096"`
}

type DownloadQuery struct {
	Path     string `query:"path" json:"path" validate:"required,max=4096"`
	FileName string `query:"fileName" json:"fileName" mod:"trim" validate:"max=255"`
}

type OpenPayload struct {
	Path string `json:"path" validate:"required,max=4096"`
}
