package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// Upstream "burro" para validar o gateway na mão: devolve o que o gateway
// repassou sobre o principal.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	logger.Info("servidor rodando", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, newHandler(logger)); err != nil {
		logger.Fatal("erro ao subir o servidor", zap.Error(err))
	}
}

func newHandler(logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/showTela", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Tela do Sistema</h1><p>Requisição recebida com sucesso!</p>"))
		logger.Info("acessaram /showTela", zap.String("principal", r.Header.Get("X-Principal-Id")))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Info("requisição recebida",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("principal", r.Header.Get("X-Principal-Id")),
			zap.String("role", r.Header.Get("X-Principal-Role")),
		)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method":    r.Method,
			"path":      r.URL.Path,
			"principal": r.Header.Get("X-Principal-Id"),
			"role":      r.Header.Get("X-Principal-Role"),
		})
	})
	return mux
}
