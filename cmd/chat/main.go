// Command chat is a terminal client for the marketplace chat. It logs in
// over the REST API, picks one of the user's chats and runs a live
// conversation on stdin/stdout.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"hireline/internal/chatclient"
	"hireline/internal/models"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Server base URL")
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	chatID := flag.String("chat", "", "Chat ID to open (skips the chat picker)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	token, selfID, err := login(*server, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	id := *chatID
	if id == "" {
		id, err = pickChat(*server, token)
		if err != nil {
			log.Fatalf("failed to pick a chat: %v", err)
		}
	}

	if err := runConversation(*server, token, id, selfID); err != nil {
		log.Fatalf("conversation error: %v", err)
	}
}

func login(server, email, password string) (token, userID string, err error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var loginResp struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Token   string       `json:"token"`
		User    *models.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", "", err
	}
	if !loginResp.Success || loginResp.User == nil {
		return "", "", fmt.Errorf("server rejected login: %s", loginResp.Message)
	}
	return loginResp.Token, loginResp.User.ID, nil
}

func pickChat(server, token string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, server+"/api/chats", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("token", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var chats []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		OtherUser struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"other_user"`
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chats); err != nil {
		return "", err
	}
	if len(chats) == 0 {
		return "", fmt.Errorf("no chats yet, open one via the web app first")
	}

	fmt.Println("Your chats:")
	for i, c := range chats {
		name := strings.TrimSpace(c.OtherUser.FirstName + " " + c.OtherUser.LastName)
		label := c.Title
		if label == "" {
			label = name
		}
		fmt.Printf("  [%d] %s", i+1, label)
		if c.UnreadCount > 0 {
			fmt.Printf(" (%d unread)", c.UnreadCount)
		}
		fmt.Println()
	}
	fmt.Print("Open which chat? ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("no selection")
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 1 || n > len(chats) {
		return "", fmt.Errorf("invalid selection")
	}
	return chats[n-1].ID, nil
}

// printer writes conversation events without interleaving them.
type printer struct {
	mu      sync.Mutex
	printed int
	selfID  string
}

func (p *printer) flush(messages []chatclient.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// History backfill prepends, so just reprint everything when the
	// list got shorter or was reordered.
	if len(messages) < p.printed {
		p.printed = 0
	}
	if p.printed > 0 && p.printed <= len(messages) {
		messages = messages[p.printed:]
	} else {
		p.printed = 0
	}
	for _, m := range messages {
		name := m.SenderName
		if m.SenderID == p.selfID {
			name = "you"
		}
		marker := ""
		if m.Local {
			marker = " (sending...)"
		}
		fmt.Printf("%s %s: %s%s\n", m.CreatedAt.Format("15:04"), name, m.Content, marker)
		p.printed++
	}
}

func (p *printer) note(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("* "+format+"\n", args...)
}

func runConversation(server, token, chatID, selfID string) error {
	session := chatclient.NewSession(chatclient.Config{BaseURL: server})
	defer session.Destroy()

	p := &printer{selfID: selfID}

	// The update handler can fire from the read loop before
	// NewConversation returns, so the handle is set under a lock.
	var (
		convMu sync.Mutex
		conv   *chatclient.Conversation
	)

	c, err := chatclient.NewConversation(session, chatID, token, selfID, chatclient.Handlers{
		OnUpdate: func() {
			convMu.Lock()
			cur := conv
			convMu.Unlock()
			if cur != nil {
				p.flush(cur.Messages())
			}
		},
		OnError: func(e models.ErrorData) {
			p.note("error: %s %s", e.Error, e.Message)
		},
		OnUserStatus: func(s models.UserStatusData) {
			p.note("user %s is %s", s.UserID, s.Status)
		},
		OnConnectionChange: func(state chatclient.State) {
			p.note("connection: %s", state)
		},
	})
	if err != nil {
		return err
	}
	convMu.Lock()
	conv = c
	convMu.Unlock()
	defer conv.Close()

	conv.RequestHistory(1, 50)

	fmt.Println("Connected. Type a message, or /typing, /history [page], /quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return nil
		case line == "/typing":
			conv.SendTyping(true)
		case strings.HasPrefix(line, "/history"):
			page := 1
			if fields := strings.Fields(line); len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
					page = n
				}
			}
			conv.RequestHistory(page, 50)
		case line != "":
			if err := conv.SendMessage(line, "text"); err != nil {
				p.note("send failed: %v", err)
			}
		}
	}
	return scanner.Err()
}
