package portal

// PayStatement is one record of the pay statement index
type PayStatement struct {
	PayDate           string            `json:"payDate"`
	StatementImageURI StatementImageURI `json:"statementImageUri"`
}

// StatementImageURI points at the statement's PDF rendition
type StatementImageURI struct {
	Href string `json:"href"`
}

// indexResponse is the body returned by the statements endpoint.
// PayStatements is a pointer so an absent field can be told apart from an empty list.
type indexResponse struct {
	PayStatements *[]PayStatement `json:"payStatements"`
}
