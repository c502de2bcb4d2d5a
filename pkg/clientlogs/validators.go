package clientlogs

type WritePayload struct {
	Level   string         `json:"level" default:"info" validate:"oneof=debug info warn error"`
	Message string         `json:"message" validate:"required,max=4000" mod:"trim"`
	Context map[string]any `json:"context"`
}
