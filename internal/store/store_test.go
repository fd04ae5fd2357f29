package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/atlasai/tripflow/internal/models"
)

func sampleSession(id string) models.Session {
	state := models.NewTripState()
	state.Origin = "Boston"
	state.Destination = "Rome"
	state.DurationDays = 5
	state.CurrentStep = models.StepAwaitingFlightChoice
	return models.Session{
		SessionID:    id,
		State:        state,
		CurrentStep:  state.CurrentStep,
		Origin:       state.Origin,
		Destination:  state.Destination,
		DurationDays: state.DurationDays,
	}
}

func TestInMemoryStoreSaveAndGet(t *testing.T) {
	st := NewInMemoryStore()
	if err := st.SaveSession(sampleSession("s1")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	sess, err := st.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.State == nil || sess.State.Destination != "Rome" {
		t.Errorf("state blob not preserved: %+v", sess.State)
	}
	if sess.CurrentStep != models.StepAwaitingFlightChoice {
		t.Errorf("unexpected step %s", sess.CurrentStep)
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set on save")
	}
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	st := NewInMemoryStore()
	sess, err := st.GetSession("nope")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for missing session, got %+v", sess)
	}
}

func TestInMemoryStoreUpsert(t *testing.T) {
	st := NewInMemoryStore()
	if err := st.SaveSession(sampleSession("s1")); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	first, err := st.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	updated := sampleSession("s1")
	updated.State.Destination = "Paris"
	updated.Destination = "Paris"
	if err := st.SaveSession(updated); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	sess, err := st.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.Destination != "Paris" {
		t.Errorf("expected updated destination, got %s", sess.Destination)
	}
	if !sess.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on upsert: %v vs %v", sess.CreatedAt, first.CreatedAt)
	}
	if sess.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v vs %v", sess.UpdatedAt, first.UpdatedAt)
	}

	summaries, err := st.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("upsert created duplicate rows: %d", len(summaries))
	}
}

func TestInMemoryStoreListOrderAndLimit(t *testing.T) {
	st := NewInMemoryStore()
	for i := 1; i <= 3; i++ {
		if err := st.SaveSession(sampleSession(fmt.Sprintf("s%d", i))); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	summaries, err := st.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	if summaries[0].SessionID != "s3" || summaries[2].SessionID != "s1" {
		t.Errorf("expected newest first, got %s, %s, %s",
			summaries[0].SessionID, summaries[1].SessionID, summaries[2].SessionID)
	}
	if summaries[0].TripDetails.Destination != "Rome" {
		t.Errorf("summary missing trip details: %+v", summaries[0].TripDetails)
	}

	limited, err := st.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit of 2, got %d", len(limited))
	}
	if limited[0].SessionID != "s3" {
		t.Errorf("expected s3 first under limit, got %s", limited[0].SessionID)
	}
}

func TestInMemoryStoreDeleteAll(t *testing.T) {
	st := NewInMemoryStore()
	for i := 1; i <= 3; i++ {
		if err := st.SaveSession(sampleSession(fmt.Sprintf("s%d", i))); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	n, err := st.DeleteAllSessions()
	if err != nil {
		t.Fatalf("DeleteAllSessions failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted, got %d", n)
	}

	sess, err := st.GetSession("s1")
	if err != nil || sess != nil {
		t.Errorf("expected empty store after delete, got %+v, %v", sess, err)
	}
}

func TestSummarizeNilState(t *testing.T) {
	sess := models.Session{SessionID: "s1", CurrentStep: models.StepInitial}
	summary := summarize(sess)
	if summary.SessionID != "s1" {
		t.Errorf("unexpected session ID %s", summary.SessionID)
	}
	if summary.TripDetails.Destination != "" {
		t.Errorf("expected empty trip details for nil state, got %+v", summary.TripDetails)
	}
}
