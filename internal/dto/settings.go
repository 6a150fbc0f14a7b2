package dto

// Typed settings documents. Each is stored under its key as JSON in the
// settings table and has defaults applied when the row is absent.

const (
	SettingKeyBranding = "branding"
	SettingKeySecurity = "security"
	SettingKeyTelegram = "telegram"
	SettingKeyBackup   = "backup"
)

type BrandingSettings struct {
	Title      string `json:"title"`
	LogoURL    string `json:"logo_url"`
	Theme      string `json:"theme"` // light | dark | system
	SupportURL string `json:"support_url"`
}

type SecuritySettings struct {
	SessionTTLMinutes int      `json:"session_ttl_minutes"`
	RateLimitPerMin   int      `json:"rate_limit_per_min"`
	AuthRateLimit     int      `json:"auth_rate_limit_per_min"`
	AllowedOrigins    []string `json:"allowed_origins"`
	AlertOnAuthFail   bool     `json:"alert_on_auth_fail"`
}

type TelegramSettings struct {
	Enabled        bool   `json:"enabled"`
	BotToken       string `json:"bot_token"`
	ChatID         int64  `json:"chat_id"`
	NotifyBackups  bool   `json:"notify_backups"`
	NotifySecurity bool   `json:"notify_security"`
	NotifyXray     bool   `json:"notify_xray"`
}

type BackupSettings struct {
	Schedule          string `json:"schedule"` // cron expression, seconds field allowed
	Retention         int    `json:"retention"`
	IncludeXrayConfig bool   `json:"include_xray_config"`
	DeliverToTelegram bool   `json:"deliver_to_telegram"`
}

func DefaultBranding() BrandingSettings {
	return BrandingSettings{Title: "One-UI", Theme: "system"}
}

func DefaultSecurity() SecuritySettings {
	return SecuritySettings{
		SessionTTLMinutes: 60,
		RateLimitPerMin:   600,
		AuthRateLimit:     30,
		AllowedOrigins:    []string{"*"},
		AlertOnAuthFail:   true,
	}
}

func DefaultTelegram() TelegramSettings {
	return TelegramSettings{NotifyBackups: true, NotifySecurity: true, NotifyXray: true}
}

func DefaultBackup() BackupSettings {
	return BackupSettings{Schedule: "0 0 4 * * *", Retention: 7, IncludeXrayConfig: true}
}
