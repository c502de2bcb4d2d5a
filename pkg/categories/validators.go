package categories

type RenameCategoryPayload struct {
	OldName string `json:"oldName" mod:"trim" validate:"required,max=300"`
	NewName string `json:"newName" mod:"trim" validate:"required,max=300"`
}

type DeleteCategoryQuery struct {
	Name string `query:"name" json:"name" validate:"required,max=300"`
}
