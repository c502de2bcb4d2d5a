package uploads

import "mime/multipart"

type UploadPayload struct {
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
