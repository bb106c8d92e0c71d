package genai

// Wire types for the generateContent REST API.

// Request is the generateContent request envelope.
type Request struct {
	Contents []Content `json:"contents"`
}

// Content is one message in the request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one content part: text, or an inline base64-encoded image.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries an inline image payload.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ResponsePart is one text part of a candidate reply.
type ResponsePart struct {
	Text string `json:"text"`
}

// Response is the generateContent response envelope.
type Response struct {
	Candidates []struct {
		Content struct {
			Parts []ResponsePart `json:"parts"`
			Role  string         `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}
