package lang

type MessageID string

const (
	CheckingCapabilitiesMsgID   MessageID = "checking_capabilities"
	HTTPPortOpenMsgID           MessageID = "http_port_open"
	HTTPPortClosedMsgID         MessageID = "http_port_closed"
	HTTPSPortOpenMsgID          MessageID = "https_port_open"
	HTTPSPortFailedMsgID        MessageID = "https_port_failed"
	HTTP3AdvertisedMsgID        MessageID = "http3_advertised"
	HTTP3NotAdvertisedMsgID     MessageID = "http3_not_advertised"
	HTTP3CheckFailedMsgID       MessageID = "http3_check_failed"
	StartingDownloadsMsgID      MessageID = "starting_downloads"
	DownloadRedirectedMsgID     MessageID = "download_redirected"
	DownloadHTTPErrorMsgID      MessageID = "download_http_error"
	DownloadTransportErrorMsgID MessageID = "download_transport_error"
	DownloadResultMsgID         MessageID = "download_result"
	NoViableProtocolsMsgID      MessageID = "no_viable_protocols"
	CancelledByUserMsgID        MessageID = "cancelled_by_user"
	InvalidTargetMsgID          MessageID = "invalid_target"
	WaitingMsgID                MessageID = "waiting"
)

var messages = map[MessageID]map[string]string{
	CheckingCapabilitiesMsgID: {
		"en": "--- Checking Capabilities for %s ---",
		"ru": "--- Проверка возможностей для %s ---",
	},
	HTTPPortOpenMsgID: {
		"en": "HTTP (Port %d): Open",
		"ru": "HTTP (порт %d): открыт",
	},
	HTTPPortClosedMsgID: {
		"en": "HTTP (Port %d): Closed/Unreachable",
		"ru": "HTTP (порт %d): закрыт или недоступен",
	},
	HTTPSPortOpenMsgID: {
		"en": "HTTPS (Port %d): Open. Negotiated ALPN: %s",
		"ru": "HTTPS (порт %d): открыт. Согласованный ALPN: %s",
	},
	HTTPSPortFailedMsgID: {
		"en": "HTTPS (Port %d): Failed (%v)",
		"ru": "HTTPS (порт %d): ошибка (%v)",
	},
	HTTP3AdvertisedMsgID: {
		"en": "HTTP/3: Advertised in Alt-Svc (%s)",
		"ru": "HTTP/3: заявлен в Alt-Svc (%s)",
	},
	HTTP3NotAdvertisedMsgID: {
		"en": "HTTP/3: Not advertised in Alt-Svc",
		"ru": "HTTP/3: не заявлен в Alt-Svc",
	},
	HTTP3CheckFailedMsgID: {
		"en": "HTTP/3 Check Failed: %v",
		"ru": "Проверка HTTP/3 не удалась: %v",
	},
	StartingDownloadsMsgID: {
		"en": "--- Starting Concurrent Download Tests ---",
		"ru": "--- Запуск параллельных тестовых загрузок ---",
	},
	DownloadRedirectedMsgID: {
		"en": "%s: Redirected to %s",
		"ru": "%s: перенаправление на %s",
	},
	DownloadHTTPErrorMsgID: {
		"en": "Failed %s: Status %d",
		"ru": "Сбой %s: статус %d",
	},
	DownloadTransportErrorMsgID: {
		"en": "Error %s: %v",
		"ru": "Ошибка %s: %v",
	},
	DownloadResultMsgID: {
		"en": "Finished %s: %s in %s (%s)",
		"ru": "Завершено %s: %s за %s (%s)",
	},
	NoViableProtocolsMsgID: {
		"en": "No valid protocols/schemes detected to test.",
		"ru": "Не обнаружено подходящих протоколов для теста.",
	},
	CancelledByUserMsgID: {
		"en": "Tests cancelled by user.",
		"ru": "Тесты отменены пользователем.",
	},
	InvalidTargetMsgID: {
		"en": "Invalid target %q: %v",
		"ru": "Неверная цель %q: %v",
	},
	WaitingMsgID: {
		"en": "waiting...",
		"ru": "ожидание...",
	},
}
