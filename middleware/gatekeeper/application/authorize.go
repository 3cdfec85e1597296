package application

import (
	"slices"

	"gatekeeper/middleware/gatekeeper/domain"
)

// Authorize permite quando required está vazio ou quando o papel do principal
// pertence ao conjunto. Não tem efeitos colaterais.
func Authorize(p domain.Principal, required []domain.Role) error {
	if len(required) == 0 {
		return nil
	}
	if slices.Contains(required, p.Role) {
		return nil
	}
	return &domain.ForbiddenError{Required: slices.Clone(required)}
}
