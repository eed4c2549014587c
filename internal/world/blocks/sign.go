package blocks

// Sign is an entity kind carrying free text.
type Sign struct {
	Text      string
	UpdatedBy string
}

func (Sign) ID() string   { return "sign" }
func (Sign) Name() string { return "Sign" }

func (s *Sign) SetText(text, by string) {
	s.Text = text
	s.UpdatedBy = by
}
