package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/ecolearn/config"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/core/video"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage: admin migrate | seed | grant-admin <email> | env [path]")

type adminConfig struct {
	Args  conf.Args
	DB    config.DB
	Retry config.Retry
	Web   struct {
		Address string `conf:"default:0.0.0.0:8000"`
	}
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(log *logrus.Logger) error {
	const prefix = "ACADEMY"
	var cfg adminConfig
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	cmd := cfg.Args.Num(0)
	if cmd == "env" {
		path := cfg.Args.Num(1)
		if path == "" {
			path = ".env"
		}
		return writeEnv(log, path, cfg.Web.Address, cfg.DB.Host)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	rp := retry.Policy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay, Log: log}

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("migrations complete")
		return nil

	case "seed":
		return seed(ctx, log, db, rp)

	case "grant-admin":
		email := strings.ToLower(strings.TrimSpace(cfg.Args.Num(1)))
		if email == "" {
			return errUsage
		}
		return grantAdmin(ctx, log, user.NewStore(db, rp), email)
	}

	return errUsage
}

func grantAdmin(ctx context.Context, log logrus.FieldLogger, us *user.Store, email string) error {
	u, err := us.FetchByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("fetching user %s: %w", email, err)
	}

	if err := us.GrantRole(ctx, u.ID, claims.RoleAdmin); err != nil {
		return fmt.Errorf("granting admin role: %w", err)
	}

	log.WithField("user_id", u.ID).Infof("%s is now an admin", email)
	return nil
}

const demoDescription = `A practical introduction to building web backends in Go.

Who is this course for?
- Developers coming from another language
- Students who know the basics of HTTP

Learning Objectives
- Structure a service in packages
- Talk to PostgreSQL
- Ship a small API`

func seed(ctx context.Context, log logrus.FieldLogger, db *sqlx.DB, rp retry.Policy) error {
	cs := course.NewStore(db, rp)
	vs := video.NewStore(db, rp)

	now := time.Now().UTC()
	c, err := cs.Create(ctx, course.Course{
		Title:       "Backend Development with Go",
		Description: demoDescription,
		ImageURL:    "https://img.youtube.com/vi/YS4e4q9oBaU/hqdefault.jpg",
		Price:       1999,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating demo course: %w", err)
	}

	chapters := []struct {
		title  string
		videos []string
	}{
		{"Getting started", []string{"Installing Go", "Hello, HTTP"}},
		{"Working with data", []string{"Connecting to PostgreSQL"}},
	}

	for i, chp := range chapters {
		ch, err := cs.CreateChapter(ctx, course.Chapter{
			CourseID:   c.ID,
			OrderIndex: i + 1,
			Title:      chp.title,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating chapter %q: %w", chp.title, err)
		}

		for _, title := range chp.videos {
			_, err := vs.Create(ctx, video.Video{
				ChapterID: ch.ID,
				Title:     title,
				URL:       "https://www.youtube.com/watch?v=YS4e4q9oBaU",
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("creating video %q: %w", title, err)
			}
		}
	}

	log.WithField("course_id", c.ID).Info("demo course seeded")
	return nil
}

// writeEnv writes the two client settings to path unless the file exists.
func writeEnv(log logrus.FieldLogger, path string, address string, dbHost string) error {
	content := fmt.Sprintf("ACADEMY_WEB_ADDRESS=%s\nACADEMY_DB_HOST=%s\n", address, dbHost)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			log.Infof("environment file already exists at %s", path)
			return nil
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	log.Infof("environment file created at %s", path)
	return nil
}
