package workflow

// User-facing messages. Server-provided text wins over the fallbacks.
const (
	MsgAnswerAll      = "Выберите ответы на все вопросы"
	MsgSignInRequired = "Авторизуйтесь, чтобы пройти тест"
	MsgFillTestFields = "Заполните название, описание и авторов теста"

	MsgLoadQuestionsFailed = "Не удалось загрузить вопросы теста"
	MsgSubmitFailed        = "Не удалось отправить ответы"
	MsgLoadTestFailed      = "Не удалось загрузить тест"
	MsgUpdateFailed        = "Не удалось сохранить изменения"
	MsgCreateFailed        = "Не удалось создать тест"
	MsgDeleteFailed        = "Не удалось удалить тест"
	MsgListFailed          = "Не удалось загрузить список тестов"
)
