// workers/user_sync_worker.go
package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"task-bounty-system/models"
	"task-bounty-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityUser matches the JSON response from the identity service's
// profile change feed.
type IdentityUser struct {
	ID               string    `json:"id"`
	ExternalID       string    `json:"external_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	TwitterUsername  string    `json:"twitter_username,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the identity service response.
type GetUserChangesResponse struct {
	Users []IdentityUser `json:"users"`
}

// UserSyncWorker keeps the local platform_users snapshot in step with the
// identity service. It only moves identity-owned fields; approval status
// and wallet address are owned locally and never touched by sync.
type UserSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewUserSyncWorker(db *gorm.DB, identityServiceURL, endpointPath, serviceToken string) *UserSyncWorker {
	return &UserSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      identityServiceURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *UserSyncWorker) Start(ctx context.Context) {
	log.Println("[SYNC] Starting user sync worker (identity service → platform_users)")
	go w.run(ctx)
}

func (w *UserSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("[SYNC] initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("[SYNC] sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("[SYNC] user sync worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local snapshot.
// An empty table is a cold start; a query failure is logged so a broken
// watermark doesn't silently masquerade as one. Both fall back to a full
// sync from epoch.
func (w *UserSyncWorker) getLastSyncTime() time.Time {
	var lastTime sql.NullTime
	err := w.db.Raw("SELECT MAX(updated_at) FROM platform_users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil {
		log.Printf("[SYNC] failed to read sync watermark, falling back to full sync: %v", err)
		return time.Unix(0, 0)
	}
	if !lastTime.Valid {
		return time.Unix(0, 0)
	}
	return lastTime.Time
}

// syncBatch fetches user changes since the given time and upserts them.
func (w *UserSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid identity service URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to identity service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("identity service non-200 response: %d %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode identity service response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		local := models.PlatformUser{
			ExternalUserID:   remote.ExternalID,
			Name:             remote.Name,
			Email:            remote.Email,
			TelegramUsername: remote.TelegramUsername,
			TwitterUsername:  remote.TwitterUsername,
			CreatedAt:        remote.CreatedAt,
			UpdatedAt:        remote.UpdatedAt,
		}

		// status and wallet_address are deliberately absent: admins own
		// approval, users own their wallet.
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "telegram_username", "twitter_username", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] failed to upsert platform_user (external_id=%q name=%q): %v",
				remote.ExternalID, remote.Name, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] synced %d users since %s (%d upserted, %d errors)",
		len(response.Users), sinceStr, upsertCount, errorCount)
	return nil
}
