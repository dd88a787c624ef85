package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/gcp"
	"github.com/jairathnishant/MentorMe-AI/internal/clients/openai"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/pkg/ctxutil"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

// AnalysisService is the session loop's view of the remote multimodal
// model. Analyze never fails: every failure mode degrades to a neutral
// AnalysisPoint so the loop needs no failure-specific branching.
type AnalysisService interface {
	Analyze(ctx context.Context, frame []byte, mentor *types.Mentor, language types.Language, instruction string) *types.AnalysisPoint
	Summarize(ctx context.Context, points []types.AnalysisPoint, mentor *types.Mentor, language types.Language) (*types.SessionSummary, error)
}

type analysisService struct {
	log    *logger.Logger
	client openai.Client
	vision gcp.Vision // optional safety pre-check; nil disables it
}

func NewAnalysisService(log *logger.Logger, client openai.Client, vision gcp.Vision) (AnalysisService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if client == nil {
		return nil, fmt.Errorf("openai client required")
	}
	return &analysisService{
		log:    log.With("service", "AnalysisService"),
		client: client,
		vision: vision,
	}, nil
}

const (
	// Score sentinel for a hard call failure.
	scoreFailure = 0
	// Score sentinel for a partial or parse failure.
	scoreNeutral = 5

	recalibratingSuggestion = "Re-calibrating... give me a moment."
)

var analysisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"posture_score":  map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		"focus_score":    map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		"lighting_score": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		"detected_objects": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"suggestion": map[string]any{"type": "string"},
		"good_points": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"improvements": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"safety_status": map[string]any{
			"type": "string",
			"enum": []string{"SAFE", "UNSAFE", "UNKNOWN"},
		},
	},
	"required": []string{
		"posture_score", "focus_score", "lighting_score",
		"detected_objects", "suggestion", "good_points", "improvements",
		"safety_status",
	},
	"additionalProperties": false,
}

var summarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"key_insights": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"overall_score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
	},
	"required":             []string{"key_insights", "overall_score"},
	"additionalProperties": false,
}

func languageName(language types.Language) string {
	switch language {
	case types.LanguageSpanish:
		return "Spanish"
	case types.LanguageFrench:
		return "French"
	default:
		return "English"
	}
}

func analysisSystemPrompt(mentor *types.Mentor, language types.Language) string {
	var sb strings.Builder
	sb.WriteString(mentor.Context)
	if goals := strings.TrimSpace(mentor.Goals); goals != "" {
		sb.WriteString("\n\nFocus areas: ")
		sb.WriteString(goals)
	}
	sb.WriteString("\n\nScore the frame 1-10 on the three axes that matter for this persona.")
	sb.WriteString(" Give exactly one actionable suggestion, in ")
	sb.WriteString(languageName(language))
	sb.WriteString(". Mark safety_status UNSAFE only for content that should stop the session.")
	return sb.String()
}

var analysisTracer = otel.Tracer("mentorme/analysis")

func (s *analysisService) Analyze(ctx context.Context, frame []byte, mentor *types.Mentor, language types.Language, instruction string) *types.AnalysisPoint {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	ctx, span := analysisTracer.Start(ctx, "analysis.Analyze", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	now := time.Now()

	if s.vision != nil {
		verdict, err := s.vision.SafeSearchImage(ctx, frame)
		if err != nil {
			s.log.Warn("Safety pre-check failed; continuing without it", "error", err)
		} else if verdict.Unsafe {
			s.log.Warn("Safety pre-check flagged frame", "adult", verdict.Adult, "violence", verdict.Violence)
			return &types.AnalysisPoint{
				Timestamp:       now,
				PostureScore:    scoreFailure,
				FocusScore:      scoreFailure,
				LightingScore:   scoreFailure,
				DetectedObjects: []string{},
				Suggestion:      "Unsafe content detected.",
				SafetyStatus:    types.SafetyUnsafe,
			}
		}
	}

	user := "Analyze the attached frame and respond with the structured result."
	if inst := strings.TrimSpace(instruction); inst != "" {
		user += "\nThe user just said: \"" + inst + "\". Address it in the suggestion."
	}

	obj, err := s.client.GenerateJSONWithImages(
		ctx,
		analysisSystemPrompt(mentor, language),
		user,
		[]openai.ImageInput{{ImageURL: openai.DataURL("image/jpeg", frame), Detail: "low"}},
		"frame_analysis",
		analysisSchema,
	)
	if err != nil {
		s.log.Warn("Analysis call failed; returning degraded point", "mentor", mentor.ID, "error", err)
		return &types.AnalysisPoint{
			Timestamp:       now,
			PostureScore:    scoreFailure,
			FocusScore:      scoreFailure,
			LightingScore:   scoreFailure,
			DetectedObjects: []string{},
			Suggestion:      recalibratingSuggestion,
			SafetyStatus:    types.SafetyUnknown,
		}
	}

	return parseAnalysisPoint(obj, now)
}

func parseAnalysisPoint(obj map[string]any, ts time.Time) *types.AnalysisPoint {
	point := &types.AnalysisPoint{
		Timestamp:       ts,
		PostureScore:    intField(obj, "posture_score", scoreNeutral),
		FocusScore:      intField(obj, "focus_score", scoreNeutral),
		LightingScore:   intField(obj, "lighting_score", scoreNeutral),
		DetectedObjects: stringsField(obj, "detected_objects"),
		Suggestion:      stringField(obj, "suggestion", recalibratingSuggestion),
		GoodPoints:      stringsField(obj, "good_points"),
		Improvements:    stringsField(obj, "improvements"),
		SafetyStatus:    safetyField(obj, "safety_status"),
	}
	return point
}

func (s *analysisService) Summarize(ctx context.Context, points []types.AnalysisPoint, mentor *types.Mentor, language types.Language) (*types.SessionSummary, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	ctx, span := analysisTracer.Start(ctx, "analysis.Summarize", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	fallback := &types.SessionSummary{
		KeyInsights:  []string{"Session completed, but the summary could not be generated."},
		OverallScore: 0,
	}

	var sb strings.Builder
	sb.WriteString("Here is the session timeline, oldest first:\n")
	for i, p := range points {
		fmt.Fprintf(&sb, "%d. scores %d/%d/%d", i+1, p.PostureScore, p.FocusScore, p.LightingScore)
		if p.Suggestion != "" {
			sb.WriteString("; suggested: " + p.Suggestion)
		}
		if len(p.Improvements) > 0 {
			sb.WriteString("; improvements: " + strings.Join(p.Improvements, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nProduce exactly 3 key insights, in ")
	sb.WriteString(languageName(language))
	sb.WriteString(", and an overall score 0-100 for the whole session.")

	obj, err := s.client.GenerateJSON(
		ctx,
		analysisSystemPrompt(mentor, language),
		sb.String(),
		"session_summary",
		summarySchema,
	)
	if err != nil {
		s.log.Error("Summarize call failed", "mentor", mentor.ID, "error", err)
		return fallback, fmt.Errorf("summarize session: %w", err)
	}

	insights := stringsField(obj, "key_insights")
	if len(insights) == 0 {
		return fallback, fmt.Errorf("summarize session: empty insights")
	}
	score := intField(obj, "overall_score", 0)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &types.SessionSummary{KeyInsights: insights, OverallScore: score}, nil
}

func intField(obj map[string]any, key string, def int) int {
	v, ok := obj[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func stringField(obj map[string]any, key string, def string) string {
	if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func stringsField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func safetyField(obj map[string]any, key string) types.SafetyStatus {
	switch strings.ToUpper(stringField(obj, key, "")) {
	case string(types.SafetySafe):
		return types.SafetySafe
	case string(types.SafetyUnsafe):
		return types.SafetyUnsafe
	default:
		return types.SafetyUnknown
	}
}
