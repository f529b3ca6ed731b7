package blogservice

import (
	"github.com/hazelwhite/inkwell/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 200), "title", "must not be more than 200 characters long")
}

func validateBody(v *common.Validator, body string) {
	v.Check(body != "", "body", "must be provided")
}

func validateState(v *common.Validator, state string) {
	v.Check(common.PermittedValue(state, StateDraft, StatePublished), "state", "must be either draft or published")
}

func validateOrderBy(v *common.Validator, orderBy string) {
	_, ok := sortColumns[orderBy]
	v.Check(ok, "orderBy", "must be one of timestamp, read_count, reading_time")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
