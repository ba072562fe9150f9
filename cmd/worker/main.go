package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"acadex/internal/attendance"
	"acadex/internal/config"
	"acadex/internal/mailer"
	"acadex/internal/queue"
	"acadex/internal/store"
)

// Worker consumes queue messages: password-setup invites and attendance
// audit events.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "acadex:queue")
	}

	var mail mailer.Mailer
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPPassword, cfg.PasswordSetupURL)
		log.Printf("SMTP configured: %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		mail = mailer.Noop{}
		log.Println("SMTP not configured, invites are logged only")
	}

	attendanceRepo := attendance.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeInvite:
			email := string(msg.Body)
			if err := mail.SendPasswordSetup(email); err != nil {
				log.Printf("invite for %s failed: %v", email, err)
				continue
			}
			log.Printf("invite sent to %s", email)

		case queue.TypeAttendance:
			id := string(msg.Body)
			rec, err := attendanceRepo.GetByID(ctx, id)
			if err != nil {
				log.Printf("fetch record %s failed: %v", id, err)
				continue
			}
			if rec == nil {
				log.Printf("record %s vanished before audit", id)
				continue
			}
			log.Printf("attendance: session=%s student=%s roll=%s at %s",
				rec.SessionID, rec.StudentID, rec.RollNo, rec.MarkedAt.Format("15:04:05"))
			if err := redisClient.Client.Incr(ctx, "acadex:stats:scans:"+rec.SessionID).Err(); err != nil {
				log.Printf("stats incr failed: %v", err)
			}

		default:
			log.Printf("unknown message type %q skipped", msg.Type)
		}
	}

	log.Println("worker stopped")
}
