package models

import "nail-preview-backend/internal/gemini"

// TransformRequest is the wire body accepted by the transform gateway and
// produced by the client-side proxy transport. Field names follow the mobile
// client's JSON convention.
type TransformRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType,omitempty"`
	ColorHex    string `json:"colorHex"`
	ColorName   string `json:"colorName,omitempty"`
	ShapeName   string `json:"shapeName"`
	LengthName  string `json:"lengthName,omitempty"`
	Finish      string `json:"finish,omitempty"`
	Brand       string `json:"brand,omitempty"`
	ProductLine string `json:"productLine,omitempty"`
	Collection  string `json:"collection,omitempty"`
	ShadeCode   string `json:"shadeCode,omitempty"`
	ShadeName   string `json:"shadeName,omitempty"`
}

// TransformResponse is the gateway's success body. Image is always a data URL.
type TransformResponse struct {
	Image      string        `json:"image"`
	Model      string        `json:"model"`
	ColorHex   string        `json:"colorHex"`
	ColorName  string        `json:"colorName,omitempty"`
	ShapeName  string        `json:"shapeName"`
	LengthName string        `json:"lengthName"`
	Usage      *gemini.Usage `json:"usage"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
