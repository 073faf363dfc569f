package integration

import (
	"fmt"
	"time"
)

// TestAdmin generates unique admin credentials using a timestamp.
func TestAdmin(suffix string) (adminName, password string) {
	ts := time.Now().UnixNano()
	adminName = fmt.Sprintf("admin-%d-%s", ts, suffix)
	password = "TestPassword123!"
	return
}

// TestAdRequestBody builds a valid advertisement request payload.
func TestAdRequestBody(userIP string) map[string]interface{} {
	return map[string]interface{}{
		"email":       "advertiser@example.com",
		"description": "Sidebar banner campaign",
		"budget":      25000,
		"userIP":      userIP,
	}
}
