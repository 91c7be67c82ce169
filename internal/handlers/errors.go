package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationDetail は422レスポンスの detail 配列の1要素です。
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

var registerTagNameOnce sync.Once

// useJSONFieldNames は gin のバリデーターがエラーに JSON 名 ("title") を使うようにします。
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// bindingDetails は ShouldBindJSON のエラーを detail 配列に変換します。
func bindingDetails(err error) []ValidationDetail {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &verrs):
		details := make([]ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ValidationDetail{
				Loc:  []string{"body", fe.Field()},
				Msg:  fieldMessage(fe),
				Type: "value_error." + fe.Tag(),
			})
		}
		return details
	case errors.As(err, &typeErr) && typeErr.Field == "":
		// ボディ全体がオブジェクトではない場合 (例: [] や "text")
		return []ValidationDetail{{Loc: []string{"body"}, Msg: "request body must be a JSON object", Type: "type_error.dict"}}
	case errors.As(err, &typeErr):
		return []ValidationDetail{{
			Loc:  []string{"body", typeErr.Field},
			Msg:  "value must be of type " + typeErr.Type.String(),
			Type: "type_error." + typeErr.Type.String(),
		}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []ValidationDetail{{Loc: []string{"body"}, Msg: "malformed JSON body", Type: "value_error.jsondecode"}}
	case errors.Is(err, io.EOF):
		return []ValidationDetail{{Loc: []string{"body"}, Msg: "request body is required", Type: "value_error.missing"}}
	default:
		return []ValidationDetail{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return "ensure this value has at least " + fe.Param() + " characters"
	case "max":
		return "ensure this value has at most " + fe.Param() + " characters"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}

func abortValidation(c *gin.Context, details []ValidationDetail) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
}
