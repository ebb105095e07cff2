package inbound

type EnrollRequest struct {
	UserID string `json:"user_id"`
}

type EnrollResponse struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRPNG  []byte `json:"qr_png"`
}

type ConfirmRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type ConfirmResponse struct {
	Confirmed bool `json:"confirmed"`
}

type ValidateRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}
