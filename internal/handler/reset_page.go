package handler

import "html/template"

type resetPageData struct {
	Email string
	Token string
}

// resetPage is the minimal form the password reset email links to.  It
// posts back to POST /api/auth/reset-password/:email.
var resetPage = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Reset password</title></head>
<body>
<h1>Reset password for {{.Email}}</h1>
<form method="post" action="/api/auth/reset-password/{{.Email}}">
  <input type="hidden" name="token" value="{{.Token}}">
  <label>New password <input type="password" name="new_password" minlength="6" maxlength="72" required></label>
  <button type="submit">Reset</button>
</form>
</body>
</html>
`))
