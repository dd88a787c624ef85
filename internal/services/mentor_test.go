package services

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type memMentorRepo struct {
	rows map[string]*types.Mentor
}

func newMemMentorRepo() *memMentorRepo {
	return &memMentorRepo{rows: map[string]*types.Mentor{}}
}

func (r *memMentorRepo) Upsert(ctx context.Context, tx *gorm.DB, mentor *types.Mentor) (*types.Mentor, error) {
	cp := *mentor
	r.rows[cp.ID] = &cp
	return &cp, nil
}

func (r *memMentorRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Mentor, error) {
	if row, ok := r.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *memMentorRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Mentor, error) {
	out := make([]*types.Mentor, 0, len(r.rows))
	for _, row := range r.rows {
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMentorRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	delete(r.rows, id)
	return nil
}

var _ repos.MentorRepo = (*memMentorRepo)(nil)

func newTestMentorService(t *testing.T) (MentorService, *memMentorRepo) {
	t.Helper()
	repo := newMemMentorRepo()
	svc, err := NewMentorService(logger.NewNop(), repo)
	if err != nil {
		t.Fatalf("NewMentorService: %v", err)
	}
	return svc, repo
}

func TestMentorListBuiltinsInOrder(t *testing.T) {
	svc, _ := newTestMentorService(t)

	mentors, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	wantIDs := []string{"fitness-trainer", "study-buddy", "presentation-coach", "code-reviewer", "assess-media"}
	if len(mentors) != len(wantIDs) {
		t.Fatalf("listed %d mentors, want %d", len(mentors), len(wantIDs))
	}
	for i, id := range wantIDs {
		if mentors[i].ID != id {
			t.Fatalf("mentors[%d].ID = %q, want %q", i, mentors[i].ID, id)
		}
		if !mentors[i].IsDefault {
			t.Fatalf("built-in %q not marked default", id)
		}
	}
}

func TestMentorOverrideReplacesTemplateInList(t *testing.T) {
	svc, _ := newTestMentorService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &types.Mentor{ID: "fitness-trainer", Name: "Drill Sergeant"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.IsDefault {
		t.Fatal("an override of a built-in keeps the default flag")
	}

	mentors, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if mentors[0].ID != "fitness-trainer" || mentors[0].Name != "Drill Sergeant" {
		t.Fatalf("mentors[0] = %q/%q, want the override in the template's slot",
			mentors[0].ID, mentors[0].Name)
	}
}

func TestMentorDeleteOverrideRevertsToTemplate(t *testing.T) {
	svc, _ := newTestMentorService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, &types.Mentor{ID: "study-buddy", Name: "Cram Partner"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Delete(ctx, "study-buddy"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mentor, err := svc.Get(ctx, "study-buddy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mentor.Name != "Study Buddy" {
		t.Fatalf("name after revert = %q, want the template's", mentor.Name)
	}
}

func TestMentorDeleteBuiltinWithoutOverrideIsNoOp(t *testing.T) {
	svc, _ := newTestMentorService(t)
	if err := svc.Delete(context.Background(), "code-reviewer"); err != nil {
		t.Fatalf("deleting a pristine built-in should be a no-op, got %v", err)
	}
}

func TestMentorCustomLifecycle(t *testing.T) {
	svc, _ := newTestMentorService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &types.Mentor{Name: "Chess Coach!", Context: "You coach chess openings."})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID != "chess-coach" {
		t.Fatalf("slug = %q, want chess-coach", saved.ID)
	}
	if saved.IsDefault {
		t.Fatal("custom mentor must not be marked default")
	}
	if saved.VoiceRate != 1.0 {
		t.Fatalf("voice rate = %v, want 1.0 default", saved.VoiceRate)
	}

	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, saved.ID); err == nil {
		t.Fatal("custom mentor must be gone after delete")
	}
	if err := svc.Delete(ctx, saved.ID); err == nil {
		t.Fatal("deleting a missing custom mentor should error")
	}
}

func TestMentorSaveRejectsOversizedContext(t *testing.T) {
	svc, _ := newTestMentorService(t)

	long := strings.Repeat("word ", mentorContextWordCap+1)
	_, err := svc.Save(context.Background(), &types.Mentor{Name: "Wordy", Context: long})
	if err == nil {
		t.Fatalf("context over %d words must be rejected", mentorContextWordCap)
	}
}

func TestMentorSaveRequiresName(t *testing.T) {
	svc, _ := newTestMentorService(t)
	if _, err := svc.Save(context.Background(), &types.Mentor{Name: "   "}); err == nil {
		t.Fatal("blank name must be rejected")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Chess Coach", "chess-coach"},
		{"  My  Mentor  ", "my-mentor"},
		{"Coach #1!", "coach-1"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
