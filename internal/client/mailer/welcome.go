package mailer

import (
	"bytes"
	"html/template"

	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/dmitrijs2005/prestigeforum/internal/reputation"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html><body>
<h2>Welcome to Prestige Forum, {{.Username}}!</h2>
<p>Your account is ready. You start as <b>{{.Rank}}</b> with {{.Score}} prestige.</p>
<p>Post helpful answers, verify a wallet and invite friends to climb the ranks.</p>
</body></html>`))

// Welcome renders the sign-up email for identity.
func Welcome(identity models.Identity) (Message, error) {
	var buf bytes.Buffer
	err := welcomeTmpl.Execute(&buf, struct {
		Username string
		Rank     string
		Score    string
	}{
		Username: identity.Username,
		Rank:     reputation.RankFor(identity.PrestigeScore, identity.IsAdmin).Title,
		Score:    reputation.FormatScore(identity.PrestigeScore),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: identity.Email, Subject: "Welcome to Prestige Forum", HTML: buf.String()}, nil
}
