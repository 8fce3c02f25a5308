package mail

// Address ...
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Attachment ...
type Attachment struct {
	// Content is the base64 encoded file content.
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

// Message is the transport independent outbound email.
type Message struct {
	From        Address
	To          []Address
	ReplyTo     *Address
	Subject     string
	HTML        string
	Attachments []Attachment
	CustomArgs  map[string]string
}

type personalization struct {
	To []Address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// sendRequest is the body of the v3 mail send endpoint.
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	ReplyTo          *Address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	CustomArgs       map[string]string `json:"custom_args,omitempty"`
}

func newSendRequest(msg Message) sendRequest {
	return sendRequest{
		Personalizations: []personalization{{To: msg.To}},
		From:             msg.From,
		ReplyTo:          msg.ReplyTo,
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/html", Value: msg.HTML}},
		Attachments:      msg.Attachments,
		CustomArgs:       msg.CustomArgs,
	}
}
