// Package gatekeeper fornece adapters HTTP (net/http) que protegem uma rota antes
// dela chegar no handler: autenticação, autorização por papel, rate limit e
// limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (resolver credencial, autorizar, decidir rate limit)
//   - infra: implementações concretas (JWT, tabela de API keys, janela fixa, stats)
//   - gatekeeper (este pacote): middlewares HTTP + extração de credencial/chave +
//     tradução para status/headers/JSON
//
// Fluxo por requisição, sempre nesta ordem:
//
//  1. Extrai a credencial (X-API-Key tem precedência sobre Authorization: Bearer)
//  2. Resolve o Principal; falhou => 401
//  3. Autoriza pelo RoutePolicy.RequiredRoles; falhou => 403
//  4. Se RoutePolicy.RateLimited, consome orçamento da chave do cliente; estourou => 429
//  5. Chama o próximo handler com o Principal no contexto
//
// Requisições rejeitadas em 2 ou 3 nunca consomem orçamento do rate limit.
package gatekeeper
