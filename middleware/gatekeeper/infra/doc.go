// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: janela fixa de timestamps por chave, em memória, com janitor
//   - JWTAuthenticator: bearer token HS256 via github.com/golang-jwt/jwt/v5
//   - KeyTable: tabela estática de API keys (env ou YAML)
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: estatísticas das decisões
//   - ChanPool: semáforo simples para limite de concorrência
package infra
