package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"boardsync/devserver"
	"boardsync/dispatch"
	"boardsync/prefs"
	"boardsync/reconcile"
	"boardsync/remote"
	"boardsync/session"
	"boardsync/store"
	"boardsync/stream"
)

func main() {
	_ = godotenv.Load()

	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	localMode := os.Getenv("LOCAL_MODE") == "1"
	g, ctx := errgroup.WithContext(ctx)

	var sess *session.Session
	if localMode {
		origin, err := startLocalBackend(ctx, g, logger)
		if err != nil {
			logger.Fatalf("local backend: %v", err)
		}
		sess = &session.Session{UserID: "dev", Token: "dev", Origin: origin}
	} else {
		origin := os.Getenv("API_ORIGIN")
		token := os.Getenv("ACCESS_TOKEN")
		if origin == "" || token == "" {
			logger.Fatal("missing API_ORIGIN or ACCESS_TOKEN")
		}
		verifier, err := buildVerifier()
		if err != nil {
			logger.Fatalf("auth config: %v", err)
		}
		sess, err = session.New(origin, token, verifier)
		if err != nil {
			logger.Fatalf("session: %v", err)
		}
	}
	logger.WithField("user", sess.UserID).Info("session established")

	st := store.New()
	rc := remote.New(sess.Origin, sess.Token, logger)
	sc := stream.New(sess, logger)

	opts := []dispatch.Option{}
	if views := buildPrefs(logger); views != nil {
		opts = append(opts, dispatch.WithViewSaver(views))
		st.SetProjectView(views.ProjectView(ctx, sess.UserID))
	}
	d := dispatch.New(st, rc, sc, sess, logger, opts...)
	defer d.Close()

	r := reconcile.New(st, d, sess.UserID, logger)

	g.Go(func() error { return sc.Run(ctx) })
	g.Go(func() error { return r.Run(ctx, sc.Events()) })
	g.Go(func() error {
		warmUp(ctx, d)
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatalf("shutdown: %v", err)
	}
	logger.Info("bye")
}

// warmUp pulls the initial workspace state.
func warmUp(ctx context.Context, d *dispatch.Dispatcher) {
	d.LoadContacts(ctx)
	d.LoadConversations(ctx)
	d.LoadProjects(ctx)
	if boardID := os.Getenv("BOARD_ID"); boardID != "" {
		d.LoadBoard(ctx, boardID)
	}
}

// buildVerifier picks HS256 shared-secret verification when a secret is
// configured, JWKS-backed RS256 otherwise.
func buildVerifier() (*session.Verifier, error) {
	if secret := os.Getenv("AUTH_SHARED_SECRET"); secret != "" {
		return session.NewSharedSecretVerifier([]byte(secret)), nil
	}
	domain := os.Getenv("AUTH_DOMAIN")
	audience := os.Getenv("AUTH_AUDIENCE")
	if domain == "" || audience == "" {
		return nil, fmt.Errorf("missing AUTH_DOMAIN or AUTH_AUDIENCE")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return session.NewVerifier(jwks, audience, "https://"+domain+"/"), nil
}

// buildPrefs wires the Redis-backed preference store when Redis is
// configured. Preferences are optional; without Redis they just do not
// survive the session.
func buildPrefs(logger *log.Logger) *prefs.Store {
	conn := os.Getenv("REDIS_CONNECTION_STRING")
	if conn == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(conn)
	if err != nil {
		parts := strings.Split(conn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	ttl := time.Duration(0)
	if v := os.Getenv("PREFS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			logger.Fatalf("invalid PREFS_TTL: %v", err)
		}
		ttl = d
	}
	return prefs.New(redis.NewClient(redisOpts), ttl)
}

// startLocalBackend serves the in-process dev backend on a loopback port and
// returns its origin.
func startLocalBackend(ctx context.Context, g *errgroup.Group, logger *log.Logger) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: devserver.New(logger).Handler()}
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	origin := "http://" + ln.Addr().String()
	logger.WithField("origin", origin).Info("local backend up")
	return origin, nil
}
