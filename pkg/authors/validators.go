package authors

type RenameAuthorPayload struct {
	OldName string `json:"oldName" mod:"trim" validate:"required,max=300"`
	NewName string `json:"newName" mod:"trim" validate:"required,max=300"`
}

type DeleteAuthorQuery struct {
	Name string `query:"name" json:"name" validate:"required,max=300"`
}
