package followup

import (
	"slices"
	"testing"

	"github.com/giygas/clinical-cases-api/categorizer"
	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/knowledge"
)

const chestPain = "chest pain"

func newTracker(t *testing.T, enabled bool) (*Tracker, *knowledge.Tables) {
	t.Helper()
	tables, err := knowledge.Default()
	if err != nil {
		t.Fatalf("Failed to load default tables: %v", err)
	}
	source := knowledge.Fixed(tables)
	return NewTracker(source, categorizer.New(source), enabled), tables
}

func TestPromptFiresOnThirdQuestion(t *testing.T) {
	tr, tables := newTracker(t, true)

	if ev := tr.TrackQuestion("what medical history do you have", chestPain); ev != nil {
		t.Fatalf("first call should not prompt, got %+v", ev)
	}
	if ev := tr.TrackQuestion("how are you feeling today", chestPain); ev != nil {
		t.Fatalf("second call should not prompt, got %+v", ev)
	}
	ev := tr.TrackQuestion("what brings you in today", chestPain)
	if ev == nil {
		t.Fatal("third call should prompt")
	}
	if !ev.ShouldPrompt || ev.Topic != "pmh" {
		t.Errorf("unexpected event %+v", ev)
	}
	if !slices.Equal(ev.FollowUpPrompts, tables.FollowUpPrompts("pmh", chestPain)) {
		t.Errorf("expected cardiac prompts, got %v", ev.FollowUpPrompts)
	}
	pmh, _ := tables.Topic("pmh")
	if ev.HintIntro != pmh.HintIntro {
		t.Errorf("hint intro = %q, want %q", ev.HintIntro, pmh.HintIntro)
	}

	if ev := tr.TrackQuestion("how are you feeling today", chestPain); ev != nil {
		t.Errorf("hint must not fire twice, got %+v", ev)
	}
	if ev := tr.TrackQuestion("any medical problems", chestPain); ev != nil {
		t.Errorf("hinted topic must not return to pending, got %+v", ev)
	}
	for range 5 {
		if ev := tr.TrackQuestion("what brings you in today", chestPain); ev != nil {
			t.Fatalf("no further prompts expected, got %+v", ev)
		}
	}

	snap := tr.Snapshot()
	if len(snap.Pending) != 0 {
		t.Errorf("expected no pending topics, got %+v", snap.Pending)
	}
	if !slices.Equal(snap.Hinted, []string{"pmh"}) {
		t.Errorf("hinted = %v, want [pmh]", snap.Hinted)
	}
}

func TestSpecificQuestionResolvesPendingTopic(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("what medical history do you have", chestPain)
	tr.TrackQuestion("how are you feeling today", chestPain)
	if ev := tr.TrackQuestion("do you have diabetes", chestPain); ev != nil {
		t.Fatalf("specific question should resolve, not prompt: %+v", ev)
	}
	for range 5 {
		if ev := tr.TrackQuestion("what brings you in today", chestPain); ev != nil {
			t.Fatalf("resolved topic must not prompt, got %+v", ev)
		}
	}
	if ev := tr.TrackQuestion("what medical history do you have", chestPain); ev != nil {
		t.Fatalf("resolved topic must not re-enter pending, got %+v", ev)
	}

	snap := tr.Snapshot()
	if len(snap.Pending) != 0 {
		t.Errorf("expected no pending topics, got %+v", snap.Pending)
	}
	if !slices.Equal(snap.Resolved, []string{"pmh"}) {
		t.Errorf("resolved = %v, want [pmh]", snap.Resolved)
	}
}

func TestSpecificQuestionOnUnseenTopicDoesNothing(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("do you have diabetes", chestPain)
	if snap := tr.Snapshot(); len(snap.Resolved) != 0 {
		t.Fatalf("unseen topic should not be resolved, got %v", snap.Resolved)
	}

	tr.TrackQuestion("what medical history do you have", chestPain)
	snap := tr.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Topic != "pmh" {
		t.Errorf("expected pmh pending, got %+v", snap.Pending)
	}
}

func TestCounterSkipsTopicCreatedThisCall(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("any family history of heart disease", chestPain)
	tr.TrackQuestion("what medical history do you have", chestPain)

	snap := tr.Snapshot()
	if len(snap.Pending) != 2 {
		t.Fatalf("expected two pending topics, got %+v", snap.Pending)
	}
	if snap.Pending[0].Topic != "family" || snap.Pending[0].QuestionsSinceGeneral != 1 {
		t.Errorf("family state = %+v", snap.Pending[0])
	}
	if snap.Pending[1].Topic != "pmh" || snap.Pending[1].QuestionsSinceGeneral != 0 {
		t.Errorf("pmh state = %+v", snap.Pending[1])
	}
}

func TestAtMostOnePromptPerCallInInsertionOrder(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("any family history of heart disease", chestPain)
	tr.TrackQuestion("do you have any allergies", chestPain)
	if ev := tr.TrackQuestion("what brings you in today", chestPain); ev == nil || ev.Topic != "family" {
		t.Fatalf("expected family prompt, got %+v", ev)
	}

	ev := tr.TrackQuestion("how are you feeling today", chestPain)
	if ev == nil || ev.Topic != "allergies" {
		t.Fatalf("expected allergies prompt, got %+v", ev)
	}

	tr2, _ := newTracker(t, true)
	tr2.TrackQuestion("any family history of heart disease", chestPain)
	tr2.TrackQuestion("what brings you in today", chestPain)
	tr2.TrackQuestion("what medical history do you have", chestPain)
	tr2.TrackQuestion("how are you feeling today", chestPain)
	ev = tr2.TrackQuestion("how are you feeling today", chestPain)
	if ev == nil || ev.Topic != "pmh" {
		t.Fatalf("expected pmh prompt, got %+v", ev)
	}
}

func TestPainUsesHigherThreshold(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("can you describe the pain", chestPain)
	for i := range 2 {
		if ev := tr.TrackQuestion("what brings you in today", chestPain); ev != nil {
			t.Fatalf("prompt fired early on filler %d: %+v", i+1, ev)
		}
	}
	ev := tr.TrackQuestion("what brings you in today", chestPain)
	if ev == nil || ev.Topic != "pain" {
		t.Fatalf("expected pain prompt on fourth call, got %+v", ev)
	}
}

func TestTopicWithoutFollowUpIsNotTracked(t *testing.T) {
	tr, _ := newTracker(t, true)
	tr.TrackQuestion("any other symptoms", chestPain)
	if snap := tr.Snapshot(); len(snap.Pending) != 0 {
		t.Errorf("review of systems should not be tracked, got %+v", snap.Pending)
	}
}

func TestFollowUpPromptsFallBackToFirstCategory(t *testing.T) {
	tr, tables := newTracker(t, true)

	tr.TrackQuestion("what medical history do you have", "itchy rash")
	snap := tr.Snapshot()
	if len(snap.Pending) != 1 {
		t.Fatalf("expected one pending topic, got %+v", snap.Pending)
	}
	pmh, _ := tables.Topic("pmh")
	if !slices.Equal(snap.Pending[0].FollowUpPrompts, pmh.FollowUps[0].Prompts) {
		t.Errorf("expected first category prompts, got %v", snap.Pending[0].FollowUpPrompts)
	}
}

func TestRevealHintIsIdempotent(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.RevealHint("pmh")
	tr.RevealHint("pmh")

	if got := tr.Revealed(); !slices.Equal(got, []string{"pmh"}) {
		t.Errorf("revealed = %v, want [pmh]", got)
	}
}

func TestCheckOnSubmit(t *testing.T) {
	tr, tables := newTracker(t, true)

	if p := tr.CheckOnSubmit(); p != nil {
		t.Fatalf("expected no nudge without pending topics, got %+v", p)
	}

	tr.TrackQuestion("what medical history do you have", chestPain)
	tr.TrackQuestion("do you have any allergies", chestPain)

	p := tr.CheckOnSubmit()
	if p == nil {
		t.Fatal("expected a nudge")
	}
	if !p.ShouldPrompt || p.Blocking || p.Topic != "pmh" || p.Message == "" {
		t.Errorf("unexpected nudge %+v", p)
	}
	if !slices.Equal(p.FollowUpPrompts, tables.FollowUpPrompts("pmh", chestPain)) {
		t.Errorf("unexpected prompts %v", p.FollowUpPrompts)
	}

	before := tr.Snapshot()
	tr.CheckOnSubmit()
	after := tr.Snapshot()
	if len(before.Pending) != len(after.Pending) || before.Pending[0].QuestionsSinceGeneral != after.Pending[0].QuestionsSinceGeneral {
		t.Error("CheckOnSubmit must not change state")
	}

	tr.RevealHint("pmh")
	if p := tr.CheckOnSubmit(); p == nil || p.Topic != "allergies" {
		t.Errorf("expected allergies after revealing pmh, got %+v", p)
	}
}

func TestDisabledTrackerIsNoOp(t *testing.T) {
	tr, _ := newTracker(t, false)

	for range 4 {
		if ev := tr.TrackQuestion("what medical history do you have", chestPain); ev != nil {
			t.Fatalf("disabled tracker prompted: %+v", ev)
		}
	}
	tr.RevealHint("pmh")
	if p := tr.CheckOnSubmit(); p != nil {
		t.Errorf("disabled tracker nudged: %+v", p)
	}

	snap := tr.Snapshot()
	if snap.Enabled || len(snap.Pending) != 0 || len(snap.Revealed) != 0 {
		t.Errorf("disabled tracker mutated state: %+v", snap)
	}

	tr.SetEnabled(true)
	if !tr.Enabled() {
		t.Fatal("expected tracker enabled")
	}
	tr.TrackQuestion("what medical history do you have", chestPain)
	if snap := tr.Snapshot(); len(snap.Pending) != 1 {
		t.Errorf("re-enabled tracker should track, got %+v", snap.Pending)
	}
}

func TestReset(t *testing.T) {
	tr, _ := newTracker(t, true)

	tr.TrackQuestion("what medical history do you have", chestPain)
	tr.TrackQuestion("do you have diabetes", chestPain)
	tr.TrackQuestion("do you have any allergies", chestPain)
	tr.RevealHint("allergies")
	tr.Reset()

	snap := tr.Snapshot()
	if len(snap.Pending)+len(snap.Resolved)+len(snap.Hinted)+len(snap.Revealed) != 0 {
		t.Errorf("expected empty state after reset, got %+v", snap)
	}
	if !snap.Enabled {
		t.Error("reset should keep the enabled flag")
	}

	tr.TrackQuestion("what medical history do you have", chestPain)
	if snap := tr.Snapshot(); len(snap.Pending) != 1 {
		t.Errorf("pmh should be trackable again after reset, got %+v", snap.Pending)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr, _ := newTracker(t, true)
	tr.TrackQuestion("what medical history do you have", chestPain)

	snap := tr.Snapshot()
	snap.Pending[0].FollowUpPrompts[0] = "mutated"
	snap.Pending[0].QuestionsSinceGeneral = 99

	again := tr.Snapshot()
	if again.Pending[0].FollowUpPrompts[0] == "mutated" || again.Pending[0].QuestionsSinceGeneral == 99 {
		t.Error("snapshot shares state with the tracker")
	}
}

type fixedCategorizer struct {
	cat entities.Categorization
}

func (f fixedCategorizer) Categorize(string) entities.Categorization {
	return f.cat
}

func TestTrackCategorizedUsesGivenCategorization(t *testing.T) {
	tables, err := knowledge.Default()
	if err != nil {
		t.Fatal(err)
	}
	other := fixedCategorizer{cat: entities.Categorization{Topic: entities.TopicOther}}
	tr := NewTracker(knowledge.Fixed(tables), other, true)

	general := entities.Categorization{Topic: "pmh", IsGeneral: true}
	if ev := tr.TrackCategorized(general, chestPain); ev != nil {
		t.Fatalf("first call should not prompt, got %+v", ev)
	}
	snap := tr.Snapshot()
	if len(snap.Pending) != 1 || snap.Pending[0].Topic != "pmh" {
		t.Fatalf("expected pmh pending from the given categorization, got %+v", snap.Pending)
	}

	tr.TrackQuestion("anything", chestPain)
	if ev := tr.TrackQuestion("anything", chestPain); ev == nil || ev.Topic != "pmh" {
		t.Errorf("expected pmh prompt on third call, got %+v", ev)
	}

	disabled := NewTracker(knowledge.Fixed(tables), other, false)
	if ev := disabled.TrackCategorized(general, chestPain); ev != nil {
		t.Errorf("disabled tracker should not prompt, got %+v", ev)
	}
	if len(disabled.Snapshot().Pending) != 0 {
		t.Error("disabled tracker should keep no state")
	}
}
