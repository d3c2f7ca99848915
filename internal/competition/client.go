package competition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
)

// Rotas do servidor de competição
const (
	pathLogin        = "/api/login"
	pathServerTime   = "/api/server-time"
	pathQRCoordinate = "/api/qr-coordinate"
	pathNoFlyCircles = "/api/no-fly-circles"
	pathSubmit       = "/api/telemetry-submit"
	pathLockInfo     = "/api/lock-info"
	pathKamikazeInfo = "/api/kamikaze-info"
)

// Client fala com o servidor de competição. A sessão é mantida pelo cookie
// devolvido no login.
type Client struct {
	baseURL       string
	http          *http.Client
	loginTimeout  time.Duration
	fetchTimeout  time.Duration
	submitTimeout time.Duration
}

// NewClient cria um cliente com cookie jar próprio
func NewClient(cfg config.CompetitionConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cookie jar: %w", err)
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          &http.Client{Jar: jar},
		loginTimeout:  orDefault(cfg.LoginTimeout, 5*time.Second),
		fetchTimeout:  orDefault(cfg.FetchTimeout, 3*time.Second),
		submitTimeout: orDefault(cfg.SubmitTimeout, 2*time.Second),
	}, nil
}

// BaseURL retorna o endereço do servidor
func (c *Client) BaseURL() string { return c.baseURL }

// Login autentica a equipe; o cookie de sessão fica no jar
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, c.loginTimeout, http.MethodPost, pathLogin, body, nil)
}

// ServerTime lê o relógio do servidor
func (c *Client) ServerTime(ctx context.Context) (models.ServerTime, error) {
	var out models.ServerTime
	err := c.do(ctx, c.fetchTimeout, http.MethodGet, pathServerTime, nil, &out)
	return out, err
}

// QRCoordinate lê a coordenada do alvo QR
func (c *Client) QRCoordinate(ctx context.Context) (models.QRCoordinate, error) {
	var out models.QRCoordinate
	err := c.do(ctx, c.fetchTimeout, http.MethodGet, pathQRCoordinate, nil, &out)
	return out, err
}

// NoFlyCircles lê as zonas de exclusão
func (c *Client) NoFlyCircles(ctx context.Context) ([]models.NoFlyCircle, error) {
	var out []models.NoFlyCircle
	err := c.do(ctx, c.fetchTimeout, http.MethodGet, pathNoFlyCircles, nil, &out)
	return out, err
}

// SubmitTelemetry envia a telemetria e devolve as amostras dos adversários
func (c *Client) SubmitTelemetry(ctx context.Context, sub Submission) ([]CompetitorSample, error) {
	var out submitResponse
	if err := c.do(ctx, c.submitTimeout, http.MethodPost, pathSubmit, sub, &out); err != nil {
		return nil, err
	}
	return out.Competitors, nil
}

// SendLockInfo reporta um travamento de alvo concluído
func (c *Client) SendLockInfo(ctx context.Context, info models.LockInfo) error {
	return c.do(ctx, c.fetchTimeout, http.MethodPost, pathLockInfo, info, nil)
}

// SendKamikazeInfo reporta o texto lido no alvo QR
func (c *Client) SendKamikazeInfo(ctx context.Context, text string) error {
	body := map[string]string{"kamikaze_info": text}
	return c.do(ctx, c.fetchTimeout, http.MethodPost, pathKamikazeInfo, body, nil)
}

// do executa uma requisição JSON com timeout próprio.
// in nil não envia corpo; out nil descarta a resposta.
func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("erro ao serializar requisição: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("resposta inválida de %s: %w", path, err)
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
