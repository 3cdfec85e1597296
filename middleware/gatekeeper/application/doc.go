// Package application contém os casos de uso do gatekeeper: resolver a credencial
// em um Principal, autorizar pelo papel, decidir o rate limit e adquirir vaga de
// concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(key) retorna uma Decision (allow/deny + remaining/reset).
package application
