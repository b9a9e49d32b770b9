package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"picoblog/internal/models"
)

// maxFormBytes caps the size of an admin form submission.
const maxFormBytes = 1 << 20

// articleForm is the decoded admin edit form.
type articleForm struct {
	Article   *models.Article
	TagString string
	EditAgain bool
}

// parseID reads an article id. An empty value means a new article (0).
func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, &models.ValidationError{Field: "id", Message: "Article id must be a positive number."}
	}
	return id, nil
}

// parseArticleForm decodes the edit form. The returned article has not been
// validated; the form is returned even on error so it can be shown again.
func parseArticleForm(w http.ResponseWriter, r *http.Request) (*articleForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, &models.ValidationError{Field: "form", Message: "The form could not be read."}
	}

	tagString := r.PostFormValue("tags")
	form := &articleForm{
		Article: &models.Article{
			Title: r.PostFormValue("title"),
			Body:  r.PostFormValue("body"),
			Tags:  models.ParseTags(tagString),
			Draft: r.PostFormValue("draft") == "on",
		},
		TagString: tagString,
		EditAgain: r.PostFormValue("edit_again") != "",
	}

	id, err := parseID(r.PostFormValue("id"))
	if err != nil {
		return form, err
	}
	form.Article.ID = id

	return form, form.Article.Validate()
}

// fieldErrors turns a validation error into the map the edit template
// shows. Other errors yield nil.
func fieldErrors(err error) map[string]string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{ve.Field: ve.Message}
	}
	return nil
}
