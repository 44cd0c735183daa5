package workflow

import (
	"fmt"
	"strings"

	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
)

type message struct {
	fr, en string
}

func msgf(fr, en string, args ...interface{}) message {
	return message{fr: fmt.Sprintf(fr, args...), en: fmt.Sprintf(en, args...)}
}

func statusChange(from, to proposition.Status) message {
	return message{
		fr: fmt.Sprintf("Statut modifié de « %s » à « %s ».", from.Label("fr"), to.Label("fr")),
		en: fmt.Sprintf("Status changed from %q to %q.", from.Label("en"), to.Label("en")),
	}
}

func memberLabel(sig supervision.Signature) message {
	name := sig.Actor.DisplayName()
	if sig.Actor.Role == supervision.RolePromoter {
		return message{fr: "le promoteur " + name, en: "promoter " + name}
	}
	return message{fr: "le membre du CA " + name, en: "committee member " + name}
}

func slotList(slots []string) string {
	return strings.Join(slots, ", ")
}

// memberf formats a message about a group member, who coming first in both languages.
func memberf(who message, fr, en string, args ...interface{}) message {
	return message{
		fr: fmt.Sprintf(fr, append([]interface{}{who.fr}, args...)...),
		en: fmt.Sprintf(en, append([]interface{}{who.en}, args...)...),
	}
}
