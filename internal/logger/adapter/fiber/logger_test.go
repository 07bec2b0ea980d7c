package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	adapter "github.com/GreenNest/GreenNest/internal/logger/adapter/fiber"

	"github.com/GreenNest/GreenNest/internal/logger"
)

// expectedLoggerJSONFormat implements loggers default json format.
type expectedLoggerJSONFormat struct {
	IP            net.IP    `json:"IP"`
	Status        int       `json:"status"`
	XPerformance  float32   `json:"X-Performance"`
	URI           string    `json:"URI"`
	Method        string    `json:"method"`
	Host          string    `json:"host"`
	XForwardedFor string    `json:"X-Forwarded-For"`
	UserAgent     string    `json:"User-Agent"`
	Identity      string    `json:"identity"`
	Time          time.Time `json:"time"`
}

func consoleConfig() adapter.Config {
	return adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			DisableCheckAlive:        true,
			Console:                  logger.Console{Enabled: true},
		},
		CheckAliveURI: "/checkalive",
		SkipPrefixes:  []string{"/static/"},
	}
}

func TestNew(t *testing.T) {
	type arguments struct {
		config     adapter.Config
		targetPath string
	}

	type want struct {
		err    error
		output *expectedLoggerJSONFormat
	}

	tests := []struct {
		name string
		args arguments
		want want
	}{
		{
			name: "empty no output at all",
			args: arguments{
				targetPath: "/",
			},
			want: want{},
		},
		{
			name: "console enabled without access log switch",
			args: arguments{
				targetPath: "/",
				config: adapter.Config{
					Config: logger.Log{Console: logger.Console{Enabled: true}},
				},
			},
			want: want{},
		},
		{
			name: "get / log to console json",
			args: arguments{
				targetPath: "/",
				config:     consoleConfig(),
			},
			want: want{
				output: &expectedLoggerJSONFormat{
					IP:     net.ParseIP("0.0.0.0"),
					Status: 200,
					URI:    "/",
					Method: fiber.MethodGet,
					Host:   "example.com",
				},
			},
		},
		{
			name: "plants filter keeps query string",
			args: arguments{
				targetPath: "/plants?category=Succulent",
				config:     consoleConfig(),
			},
			want: want{
				output: &expectedLoggerJSONFormat{
					IP:     net.ParseIP("0.0.0.0"),
					Status: 200,
					URI:    "/plants?category=Succulent",
					Method: fiber.MethodGet,
					Host:   "example.com",
				},
			},
		},
		{
			name: "multiple slashes are logged raw",
			args: arguments{
				targetPath: "//plants",
				config:     consoleConfig(),
			},
			want: want{
				output: &expectedLoggerJSONFormat{
					IP:     net.ParseIP("0.0.0.0"),
					Status: 404,
					URI:    "//plants",
					Method: fiber.MethodGet,
					Host:   "example.com",
				},
			},
		},
		{
			name: "signed in visitor is tagged",
			args: arguments{
				targetPath: "/profile",
				config:     consoleConfig(),
			},
			want: want{
				output: &expectedLoggerJSONFormat{
					IP:       net.ParseIP("0.0.0.0"),
					Status:   200,
					URI:      "/profile",
					Method:   fiber.MethodGet,
					Host:     "example.com",
					Identity: "uid-1",
				},
			},
		},
		{
			name: "check alive is skipped",
			args: arguments{
				targetPath: "/checkalive",
				config:     consoleConfig(),
			},
			want: want{},
		},
		{
			name: "static assets are skipped",
			args: arguments{
				targetPath: "/static/app.css",
				config:     consoleConfig(),
			},
			want: want{},
		},
		{
			name: "next skips the middleware",
			args: arguments{
				targetPath: "/",
				config: func() adapter.Config {
					cfg := consoleConfig()
					cfg.Next = func(*fiber.Ctx) bool { return true }

					return cfg
				}(),
			},
			want: want{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := testMiddlewareHelper(t, tt.args.targetPath, tt.args.config)

			assert.Equal(t, tt.want.err, err)

			if tt.want.output == nil && output != "" {
				t.Errorf("expected no output, but got output %s", output)
			}

			if tt.want.output != nil && output == "" {
				t.Error("expected output but got no output")
			}

			if tt.want.output != nil && output != "" {
				var decodedOutput expectedLoggerJSONFormat
				err = json.Unmarshal([]byte(output), &decodedOutput)
				if err != nil {
					t.Error(err)
					return
				}

				assert.Equal(t, tt.want.output.Host, decodedOutput.Host)
				assert.Equal(t, tt.want.output.Method, decodedOutput.Method)
				assert.Equal(t, tt.want.output.Status, decodedOutput.Status)
				assert.Equal(t, tt.want.output.IP, decodedOutput.IP)
				assert.Equal(t, tt.want.output.URI, decodedOutput.URI)
				assert.Equal(t, tt.want.output.Identity, decodedOutput.Identity)
			}
		})
	}
}

func testMiddlewareHelper(t *testing.T, targetPath string, adapterConfig adapter.Config) (string, error) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	// capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(adapter.New(adapterConfig))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("hello test")
	})
	app.Get("/plants", func(ctx *fiber.Ctx) error {
		return ctx.SendString("plants")
	})
	app.Get("/profile", func(ctx *fiber.Ctx) error {
		ctx.Locals("IdentityID", "uid-1")
		return ctx.SendString("profile")
	})
	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})
	app.Get("/static/app.css", func(ctx *fiber.Ctx) error {
		return ctx.SendString("body{}")
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), 100000)
	if err != nil {
		_ = w.Close()
		os.Stdout = stdout
		os.Stderr = stderr

		return "", err
	}

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)

		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr
	out := <-outC

	return out, err
}
