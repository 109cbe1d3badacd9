package types

import (
	"encoding/json"
	"time"
)

// AnalysisRequest is the body of the analyze endpoints.
// HasProfile is false when the body carried no profile object.
type AnalysisRequest struct {
	UserID      string      `json:"userId"`
	ProductData ProductData `json:"productData"`
	UserProfile UserProfile `json:"userProfile"`
	HasProfile  bool        `json:"-"`
}

func (r *AnalysisRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID           string       `json:"userId"`
		UserIDSnake      string       `json:"user_id"`
		ProductData      *ProductData `json:"productData"`
		ProductDataSnake *ProductData `json:"product_data"`
		UserProfile      *UserProfile `json:"userProfile"`
		UserProfileSnake *UserProfile `json:"user_profile"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnalysisRequest{UserID: firstNonEmpty(raw.UserID, raw.UserIDSnake)}
	switch {
	case raw.ProductData != nil:
		r.ProductData = *raw.ProductData
	case raw.ProductDataSnake != nil:
		r.ProductData = *raw.ProductDataSnake
	}
	switch {
	case raw.UserProfile != nil:
		r.UserProfile = *raw.UserProfile
		r.HasProfile = true
	case raw.UserProfileSnake != nil:
		r.UserProfile = *raw.UserProfileSnake
		r.HasProfile = true
	}
	return nil
}

// AnalysisResponse is returned by the analyze endpoints.
type AnalysisResponse struct {
	Success  bool           `json:"success"`
	Analysis *RAGAnalysis   `json:"analysis,omitempty"`
	Source   AnalysisSource `json:"source,omitempty"`
	Findings []MatchWarning `json:"findings,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// MatchRequest asks for matcher findings only.
type MatchRequest struct {
	Ingredients []string `json:"ingredients"`
	Allergens   []string `json:"allergens"`
	Allergies   []string `json:"allergies"`
	DietType    string   `json:"dietType"`
}

// CreateRuleRequest is the body for adding an analysis rule.
type CreateRuleRequest struct {
	RuleType       string              `json:"rule_type" binding:"required,oneof=allergy disease nutrition"`
	ConditionKey   string              `json:"condition_key" binding:"required"`
	NutrientLimits map[string]LimitMax `json:"nutrient_limits"`
	WarningMessage string              `json:"warning_message" binding:"required"`
	Severity       string              `json:"severity" binding:"omitempty,oneof=safe warning danger"`
	ScoreImpact    *int                `json:"score_impact"`
	Description    string              `json:"description"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=12"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the token issued to a user.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// UpdateProfileRequest patches the stored profile. Nil fields are left unchanged;
// an empty list clears the stored one.
type UpdateProfileRequest struct {
	Name              *string   `json:"name"`
	Height            *float64  `json:"height"`
	Weight            *float64  `json:"weight"`
	AgeRange          *string   `json:"age_range"`
	Gender            *string   `json:"gender"`
	DietType          *string   `json:"diet_type"`
	Allergies         *[]string `json:"allergies"`
	Diseases          *[]string `json:"diseases"`
	SpecialConditions *[]string `json:"special_conditions"`
}

// LimitMax is the static ceiling of one nutrient in a rule.
type LimitMax struct {
	Max *float64 `json:"max"`
}

// CreateKnowledgeRequest is the body for adding a knowledge document.
type CreateKnowledgeRequest struct {
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	Category string   `json:"category" binding:"required"`
	Keywords []string `json:"keywords"`
}

// KnowledgeHit is one retrieval result.
type KnowledgeHit struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// ScanRecord is the API view of one stored analysis.
type ScanRecord struct {
	ID                string         `json:"id"`
	ProductName       string         `json:"productName"`
	Suitability       Suitability    `json:"suitability"`
	Score             int            `json:"score"`
	Source            AnalysisSource `json:"source"`
	DetectedAllergens []string       `json:"detectedAllergens"`
	DietWarnings      []string       `json:"dietWarnings"`
	Recommendations   []string       `json:"recommendations"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// CountEntry is a label with its frequency.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ScanStats summarizes a user's scans over a period.
type ScanStats struct {
	Period             string              `json:"period"`
	TotalScans         int                 `json:"totalScans"`
	SuitabilityCounts  map[Suitability]int `json:"suitabilityCounts"`
	TopAllergens       []CountEntry        `json:"topAllergens"`
	DietViolationCount int                 `json:"dietViolationCount"`
	AverageScore       float64             `json:"averageScore"`
	AverageNutrition   map[string]float64  `json:"averageNutrition"`
}
