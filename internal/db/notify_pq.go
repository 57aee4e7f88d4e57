package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NotifyChannel is the postgres channel row triggers publish on
const NotifyChannel = "attendr_changes"

const notifyFunctionSQL = `
CREATE OR REPLACE FUNCTION attendr_notify_change() RETURNS trigger AS $$
DECLARE
	rec RECORD;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rec := OLD;
	ELSE
		rec := NEW;
	END IF;
	PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'id', rec.id,
		'user_id', rec.user_id
	)::text);
	RETURN rec;
END;
$$ LANGUAGE plpgsql`

var notifiedTables = []string{"clock_records", "leave_requests"}

func installNotifyTriggers(db *gorm.DB) error {
	if err := db.Exec(notifyFunctionSQL).Error; err != nil {
		return fmt.Errorf("failed to create notify function: %w", err)
	}
	for _, table := range notifiedTables {
		trigger := table + "_notify"
		if err := db.Exec(fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, table)).Error; err != nil {
			return fmt.Errorf("failed to drop trigger %s: %w", trigger, err)
		}
		stmt := fmt.Sprintf(
			"CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION attendr_notify_change()",
			trigger, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create trigger %s: %w", trigger, err)
		}
	}
	return nil
}

// ListenChanges forwards postgres notifications on NotifyChannel into feed until ctx is done.
// Writes made by other processes reach local subscribers this way.
func ListenChanges(ctx context.Context, dsn string, feed *Feed, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	listener := pq.NewListener(dsn, 5*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("change listener event", "event", int(ev), "err", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", NotifyChannel, err)
	}
	logger.Info("listening for row changes", "channel", NotifyChannel)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	forwardChanges(ctx, listener.Notify, ping.C, listener.Ping, feed, logger)
	return nil
}

// forwardChanges publishes each notification into feed and pings the connection on every
// tick until ctx is done.
func forwardChanges(ctx context.Context, notify <-chan *pq.Notification, ping <-chan time.Time, pinger func() error, feed *Feed, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-notify:
			if n == nil {
				// connection was re-established; anything sent meanwhile is lost
				logger.Warn("change listener reconnected")
				continue
			}
			c, err := decodeChange(n.Extra)
			if err != nil {
				logger.Warn("bad change payload", "payload", n.Extra, "err", err)
				continue
			}
			feed.Publish(c)
		case <-ping:
			if err := pinger(); err != nil {
				logger.Warn("change listener ping failed", "err", err)
			}
		}
	}
}

func decodeChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("missing table")
	}
	return c, nil
}
