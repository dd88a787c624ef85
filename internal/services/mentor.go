package services

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gopkg.in/yaml.v3"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

//go:embed mentors.yaml
var builtinMentorsYAML []byte

const mentorContextWordCap = 200

// MentorService serves persona configurations. Built-in mentors are
// immutable templates; a stored row with the same ID overrides its
// template and deleting that row reverts to it. Custom mentors exist only
// as rows.
type MentorService interface {
	List(ctx context.Context) ([]*types.Mentor, error)
	Get(ctx context.Context, id string) (*types.Mentor, error)
	Save(ctx context.Context, mentor *types.Mentor) (*types.Mentor, error)
	Delete(ctx context.Context, id string) error
}

type mentorService struct {
	log       *logger.Logger
	repo      repos.MentorRepo
	templates map[string]*types.Mentor
	order     []string
}

type mentorTemplateFile struct {
	Mentors []struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		Description    string   `yaml:"description"`
		Context        string   `yaml:"context"`
		Goals          string   `yaml:"goals"`
		SupportedModes []string `yaml:"supported_modes"`
		VoiceRate      float64  `yaml:"voice_rate"`
		VoicePitch     float64  `yaml:"voice_pitch"`
	} `yaml:"mentors"`
}

func NewMentorService(log *logger.Logger, repo repos.MentorRepo) (MentorService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	var file mentorTemplateFile
	if err := yaml.Unmarshal(builtinMentorsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse builtin mentors: %w", err)
	}

	templates := make(map[string]*types.Mentor, len(file.Mentors))
	order := make([]string, 0, len(file.Mentors))
	for _, m := range file.Mentors {
		modes := make([]types.SessionMode, 0, len(m.SupportedModes))
		for _, mode := range m.SupportedModes {
			modes = append(modes, types.SessionMode(mode))
		}
		templates[m.ID] = &types.Mentor{
			ID:             m.ID,
			Name:           m.Name,
			Description:    m.Description,
			Context:        strings.TrimSpace(m.Context),
			Goals:          m.Goals,
			IsDefault:      true,
			SupportedModes: datatypes.NewJSONSlice(modes),
			VoiceRate:      m.VoiceRate,
			VoicePitch:     m.VoicePitch,
		}
		order = append(order, m.ID)
	}

	return &mentorService{
		log:       log.With("service", "MentorService"),
		repo:      repo,
		templates: templates,
		order:     order,
	}, nil
}

func (s *mentorService) List(ctx context.Context) ([]*types.Mentor, error) {
	rows, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}

	overrides := make(map[string]*types.Mentor, len(rows))
	custom := make([]*types.Mentor, 0, len(rows))
	for _, row := range rows {
		if _, isBuiltin := s.templates[row.ID]; isBuiltin {
			overrides[row.ID] = row
		} else {
			custom = append(custom, row)
		}
	}

	out := make([]*types.Mentor, 0, len(s.order)+len(custom))
	for _, id := range s.order {
		if override, ok := overrides[id]; ok {
			out = append(out, override)
			continue
		}
		out = append(out, s.templates[id])
	}
	out = append(out, custom...)
	return out, nil
}

func (s *mentorService) Get(ctx context.Context, id string) (*types.Mentor, error) {
	row, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get mentor %q: %w", id, err)
	}
	if row != nil {
		return row, nil
	}
	if template, ok := s.templates[id]; ok {
		return template, nil
	}
	return nil, fmt.Errorf("mentor %q not found", id)
}

func (s *mentorService) Save(ctx context.Context, mentor *types.Mentor) (*types.Mentor, error) {
	if mentor == nil {
		return nil, fmt.Errorf("mentor required")
	}
	mentor.Name = strings.TrimSpace(mentor.Name)
	if mentor.Name == "" {
		return nil, fmt.Errorf("mentor name required")
	}
	if words := len(strings.Fields(mentor.Context)); words > mentorContextWordCap {
		return nil, fmt.Errorf("mentor context exceeds %d words (got %d)", mentorContextWordCap, words)
	}
	if mentor.ID == "" {
		mentor.ID = slugify(mentor.Name)
	}
	// A same-id save of a built-in becomes an override, never an edit of
	// the template itself.
	_, mentor.IsDefault = s.templates[mentor.ID]
	if mentor.VoiceRate == 0 {
		mentor.VoiceRate = 1.0
	}

	saved, err := s.repo.Upsert(ctx, nil, mentor)
	if err != nil {
		return nil, fmt.Errorf("save mentor %q: %w", mentor.ID, err)
	}
	return saved, nil
}

func (s *mentorService) Delete(ctx context.Context, id string) error {
	row, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("delete mentor %q: %w", id, err)
	}
	_, isBuiltin := s.templates[id]
	if row == nil {
		if isBuiltin {
			// Nothing to revert; the template remains.
			return nil
		}
		return fmt.Errorf("mentor %q not found", id)
	}
	if err := s.repo.Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("delete mentor %q: %w", id, err)
	}
	if isBuiltin {
		s.log.Info("Mentor override removed, reverting to template", "mentor", id)
	}
	return nil
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var sb strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
