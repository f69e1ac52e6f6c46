package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/ukydev/carlog/internal/models"
)

// ErrMalformedResponse is returned when the model output does not satisfy the
// response schema despite the constrained call.
var ErrMalformedResponse = errors.New("malformed model response")

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator delegates schedule and cost generation to Gemini under a
// fixed JSON response schema.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates the AI-backed generator. A missing API key is an
// error here; the caller treats that as "run without the AI path", not as a
// startup failure.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// geminiPayload mirrors the response schema.
type geminiPayload struct {
	Items []struct {
		Description string  `json:"description"`
		Odometer    int     `json:"odometer"`
		Cost        float64 `json:"cost"`
		DIYCost     float64 `json:"diy_cost"`
	} `json:"items"`
	InsuranceMin float64 `json:"insurance_min"`
	InsuranceMax float64 `json:"insurance_max"`
	RoadTaxMin   float64 `json:"road_tax_min"`
	RoadTaxMax   float64 `json:"road_tax_max"`
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"description": {Type: genai.TypeString},
						"odometer":    {Type: genai.TypeInteger},
						"cost":        {Type: genai.TypeNumber},
						"diy_cost":    {Type: genai.TypeNumber},
					},
					Required: []string{"description", "odometer", "cost", "diy_cost"},
				},
			},
			"insurance_min": {Type: genai.TypeNumber},
			"insurance_max": {Type: genai.TypeNumber},
			"road_tax_min":  {Type: genai.TypeNumber},
			"road_tax_max":  {Type: genai.TypeNumber},
		},
		Required: []string{"items", "insurance_min", "insurance_max", "road_tax_min", "road_tax_max"},
	}
}

// Generate asks the model for a maintenance schedule and parses it strictly.
func (g *GeminiGenerator) Generate(ctx context.Context, vehicle models.Vehicle, targetMileage int) (*Result, error) {
	baseline := vehicle.HighestOdometer()

	prompt := fmt.Sprintf(
		"You are a car maintenance planner. For a %d %s %s currently at %d km, "+
			"list every routine maintenance service due strictly after %d km and up to %d km, "+
			"one item per occurrence, with the odometer reading it is due at, the typical cost "+
			"at an independent shop in euros, and the parts-only cost for a DIY repair. "+
			"Also estimate the yearly insurance and road-tax cost ranges in euros for this vehicle in Italy.",
		vehicle.Year, vehicle.Make, vehicle.Model, baseline, baseline, targetMileage,
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	var payload geminiPayload
	if err := json.Unmarshal([]byte(resp.Text()), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// Keep only items inside the requested window; the model occasionally
	// pads the schedule beyond it.
	projected := []ProjectedService{}
	for _, item := range payload.Items {
		if item.Odometer <= baseline || item.Odometer > targetMileage {
			continue
		}
		projected = append(projected, ProjectedService{
			Description: item.Description,
			Odometer:    item.Odometer,
			Cost:        item.Cost,
			DIYCost:     item.DIYCost,
		})
	}

	return &Result{
		Vehicle:   vehicle,
		Projected: projected,
		AnnualCost: AnnualCostEstimate{
			InsuranceMin: payload.InsuranceMin,
			InsuranceMax: payload.InsuranceMax,
			RoadTaxMin:   payload.RoadTaxMin,
			RoadTaxMax:   payload.RoadTaxMax,
		},
		TargetMileage: targetMileage,
	}, nil
}
