package dto

// GenerateCaptchaResponse returns a rotate captcha challenge
type GenerateCaptchaResponse struct {
	Message           string `json:"message"`
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
}

// VerifyCaptchaRequest carries the user's answer to a rotate challenge
type VerifyCaptchaRequest struct {
	ChallengeID string  `json:"challenge_id" validate:"required"`
	Angle       float64 `json:"angle" validate:"required"`
}

// VerifyCaptchaResponse reports whether the answer was accepted
type VerifyCaptchaResponse struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}
