package service

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(h *NotificationHub, userID uint) *Client {
	return &Client{Hub: h, Send: make(chan []byte, 4), UserID: userID}
}

func waitOnline(t *testing.T, h *NotificationHub, userID uint, want bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.IsUserOnline(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("IsUserOnline(%d) never became %v", userID, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPushToUsersSkipsOfflineAccounts(t *testing.T) {
	h := NewNotificationHub(nil)
	go h.Run()
	defer h.Stop()

	if n := h.PushToUsers([]uint{7}, WSMessage{Type: WSTypeNotification}); n != 0 {
		t.Fatalf("offline push = %d want 0", n)
	}

	c := newTestClient(h, 7)
	if !h.add(c) {
		t.Fatal("add failed on running hub")
	}
	waitOnline(t, h, 7, true)

	if n := h.PushToUsers([]uint{7, 8}, WSMessage{Type: WSTypeNotification, Data: "hi"}); n != 1 {
		t.Fatalf("push = %d want 1", n)
	}
	select {
	case raw := <-c.Send:
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != WSTypeNotification || msg.Data != "hi" {
			t.Fatalf("msg = %s, %v", raw, err)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	h.remove(c)
	waitOnline(t, h, 7, false)
	if _, ok := <-c.Send; ok {
		t.Fatal("send channel still open after remove")
	}
}

func TestHubCallsReturnAfterStop(t *testing.T) {
	// 未运行 Run，停止后不再有接收方
	h := NewNotificationHub(nil)
	h.Stop()

	c := newTestClient(h, 3)
	done := make(chan bool)
	go func() {
		added := h.add(c)
		h.remove(c)
		done <- added
	}()
	select {
	case added := <-done:
		if added {
			t.Fatal("add succeeded on stopped hub")
		}
	case <-time.After(time.Second):
		t.Fatal("add/remove blocked after Stop")
	}
}
