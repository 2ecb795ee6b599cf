package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/empathicai21/Empathic-AI-Research/internal/config"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
	"github.com/empathicai21/Empathic-AI-Research/internal/safety"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/ai"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/assign"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

type stubChatModel struct{}

func (stubChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("ok", nil), nil
}

func (stubChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("ok", nil)}), nil
}

func (stubChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *bot.Manager, *store.MemoryStore) {
	t.Helper()

	styles := style.NewMemoryStore(style.Seed())
	persistence := store.NewMemoryStore()
	detector := safety.NewDetector(nil, "")

	aiSvc, err := ai.NewServiceWithModel(context.Background(), stubChatModel{}, config.AIConfig{})
	if err != nil {
		t.Fatalf("NewServiceWithModel err: %v", err)
	}
	assembler := ai.NewAssembler(prompt.NewSource("", styles), 150)
	manager := bot.NewManager(aiSvc, assembler, detector, assign.NewPolicy(persistence), styles, persistence,
		config.StudyConfig{MaxWords: 150, MaxTurns: 10, DetectorFailOpen: true})

	r := chi.NewRouter()
	New(manager, persistence).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, manager, persistence
}

func TestCreateSessionEndpoint(t *testing.T) {
	server, _, persistence := newTestServer(t)

	resp, err := http.Post(server.URL+"/session", "application/json", bytes.NewBufferString(`{"prolificId":"PR-9"}`))
	if err != nil {
		t.Fatalf("POST /session err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var info bot.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if info.SessionID == "" || info.ParticipantID == "" {
		t.Fatalf("incomplete session info: %+v", info)
	}
	if info.Style != style.Cognitive {
		t.Fatalf("first enrollment style = %s, want cognitive", info.Style)
	}
	if info.WatermarkCondition != study.WatermarkVisible && info.WatermarkCondition != study.WatermarkHidden {
		t.Fatalf("unexpected watermark condition %q", info.WatermarkCondition)
	}

	participant, err := persistence.GetParticipant(context.Background(), info.ParticipantID)
	if err != nil {
		t.Fatalf("participant not enrolled: %v", err)
	}
	if participant.ProlificID != "PR-9" {
		t.Fatalf("prolific id not recorded: %+v", participant)
	}
}

func TestCreateSessionEmptyBody(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/session", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /session err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestCreateSessionInvalidStyle(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/session", "application/json", bytes.NewBufferString(`{"style":"sarcastic"}`))
	if err != nil {
		t.Fatalf("POST /session err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestEndSessionEndpoint(t *testing.T) {
	server, manager, persistence := newTestServer(t)

	info, err := manager.CreateSession(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/session/"+info.SessionID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /session err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	if _, ok := manager.Session(info.SessionID); ok {
		t.Fatal("session still live after delete")
	}
	participant, _ := persistence.GetParticipant(context.Background(), info.ParticipantID)
	if !participant.Completed {
		t.Fatal("participant not marked completed")
	}

	// Deleting again stays a no-op.
	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/session/"+info.SessionID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("repeat DELETE err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("repeat delete status = %d, want 204", resp.StatusCode)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	server, manager, persistence := newTestServer(t)

	info, err := manager.CreateSession(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	resp, err := http.Post(server.URL+"/session/"+info.SessionID+"/feedback", "application/json",
		bytes.NewBufferString(`{"text":"felt understood","rating":5}`))
	if err != nil {
		t.Fatalf("POST feedback err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	participant, _ := persistence.GetParticipant(context.Background(), info.ParticipantID)
	if participant.FeedbackText != "felt understood" || participant.FeedbackRating != 5 {
		t.Fatalf("feedback not saved: %+v", participant)
	}
}

func TestFeedbackUnknownSession(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/session/nope/feedback", "application/json",
		bytes.NewBufferString(`{"text":"x","rating":1}`))
	if err != nil {
		t.Fatalf("POST feedback err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
