package types

type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"apiKey"`
}

// MaskedKey hides the middle of the API key for display.
func (a Account) MaskedKey() string {
	if len(a.APIKey) <= 8 {
		return "••••••••"
	}
	return a.APIKey[:4] + "••••" + a.APIKey[len(a.APIKey)-4:]
}
