package nezha

import "time"

// Server is one monitored machine as returned by the dashboard.
type Server struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	UUID         string    `json:"uuid,omitempty"`
	DisplayIndex int       `json:"display_index"`
	HideForGuest bool      `json:"hide_for_guest,omitempty"`
	PublicNote   string    `json:"public_note,omitempty"`
	Host         HostInfo  `json:"host"`
	State        HostState `json:"state"`
	CountryCode  string    `json:"country_code,omitempty"`
	LastActive   time.Time `json:"last_active"`
}

// RequiredKeys implements Keyed.
func (Server) RequiredKeys() []string { return []string{"id", "name"} }

// Online reports whether the agent checked in within window of now.
func (s Server) Online(now time.Time, window time.Duration) bool {
	if s.LastActive.IsZero() {
		return false
	}
	return now.Sub(s.LastActive) <= window
}

// MemPercent returns memory usage in percent, or 0 when the total is unknown.
func (s Server) MemPercent() float64 {
	return percent(s.State.MemUsed, s.Host.MemTotal)
}

// DiskPercent returns disk usage in percent, or 0 when the total is unknown.
func (s Server) DiskPercent() float64 {
	return percent(s.State.DiskUsed, s.Host.DiskTotal)
}

// SwapPercent returns swap usage in percent, or 0 when the total is unknown.
func (s Server) SwapPercent() float64 {
	return percent(s.State.SwapUsed, s.Host.SwapTotal)
}

func percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// HostInfo is the mostly static hardware and OS description of a server.
type HostInfo struct {
	Platform        string   `json:"platform"`
	PlatformVersion string   `json:"platform_version"`
	CPU             []string `json:"cpu"`
	GPU             []string `json:"gpu,omitempty"`
	MemTotal        uint64   `json:"mem_total"`
	DiskTotal       uint64   `json:"disk_total"`
	SwapTotal       uint64   `json:"swap_total"`
	Arch            string   `json:"arch"`
	Virtualization  string   `json:"virtualization"`
	BootTime        uint64   `json:"boot_time"`
	Version         string   `json:"version"`
}

// HostState is the live status reported with every agent heartbeat.
type HostState struct {
	CPU            float64       `json:"cpu"`
	MemUsed        uint64        `json:"mem_used"`
	SwapUsed       uint64        `json:"swap_used"`
	DiskUsed       uint64        `json:"disk_used"`
	NetInTransfer  uint64        `json:"net_in_transfer"`
	NetOutTransfer uint64        `json:"net_out_transfer"`
	NetInSpeed     uint64        `json:"net_in_speed"`
	NetOutSpeed    uint64        `json:"net_out_speed"`
	Uptime         uint64        `json:"uptime"`
	Load1          float64       `json:"load_1"`
	Load5          float64       `json:"load_5"`
	Load15         float64       `json:"load_15"`
	TCPConnCount   uint64        `json:"tcp_conn_count"`
	UDPConnCount   uint64        `json:"udp_conn_count"`
	ProcessCount   uint64        `json:"process_count"`
	Temperatures   []Temperature `json:"temperatures,omitempty"`
	GPU            []float64     `json:"gpu,omitempty"`
}

// Temperature is one sensor reading.
type Temperature struct {
	Name        string  `json:"Name"`
	Temperature float64 `json:"Temperature"`
}

// ServerForm is the editable subset of a server.
type ServerForm struct {
	Name         string   `json:"name"`
	Note         string   `json:"note,omitempty"`
	PublicNote   string   `json:"public_note,omitempty"`
	DisplayIndex int      `json:"display_index"`
	HideForGuest bool     `json:"hide_for_guest"`
	EnableDDNS   bool     `json:"enable_ddns"`
	DDNSProfiles []uint64 `json:"ddns_profiles,omitempty"`
}

// LegacyServer is a row of the older /server/list endpoint.
type LegacyServer struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	LastActive   int64      `json:"last_active"`
	IPv4         string     `json:"ipv4"`
	IPv6         string     `json:"ipv6"`
	ValidIP      string     `json:"valid_ip"`
	DisplayIndex int        `json:"display_index"`
	Host         *HostInfo  `json:"host,omitempty"`
	Status       *HostState `json:"status,omitempty"`
}

// RequiredKeys implements Keyed.
func (LegacyServer) RequiredKeys() []string { return []string{"id", "name"} }

// MonitorHistory is one service-check series for a server (legacy endpoint).
type MonitorHistory struct {
	MonitorID   uint64    `json:"monitor_id"`
	ServerID    uint64    `json:"server_id"`
	MonitorName string    `json:"monitor_name"`
	ServerName  string    `json:"server_name"`
	CreatedAt   []int64   `json:"created_at"`
	AvgDelay    []float64 `json:"avg_delay"`
}

// ServerGroup is a named group of servers.
type ServerGroup struct {
	Group   Group    `json:"group"`
	Servers []uint64 `json:"servers"`
}

// RequiredKeys implements Keyed.
func (ServerGroup) RequiredKeys() []string { return []string{"group"} }

// Group is the id/name pair shared by server and notification groups.
type Group struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ServerGroupForm creates or updates a server group.
type ServerGroupForm struct {
	Name    string   `json:"name"`
	Servers []uint64 `json:"servers"`
}

// Notification is a delivery method (webhook) for alerts.
type Notification struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	RequestMethod int    `json:"request_method"`
	RequestType   int    `json:"request_type"`
	RequestHeader string `json:"request_header"`
	RequestBody   string `json:"request_body"`
	VerifyTLS     bool   `json:"verify_tls"`
}

// RequiredKeys implements Keyed.
func (Notification) RequiredKeys() []string { return []string{"id", "name"} }

// NotificationForm creates or updates a notification method.
type NotificationForm struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	RequestMethod int    `json:"request_method"`
	RequestType   int    `json:"request_type"`
	RequestHeader string `json:"request_header"`
	RequestBody   string `json:"request_body"`
	VerifyTLS     bool   `json:"verify_tls"`
	SkipCheck     bool   `json:"skip_check,omitempty"`
}

// NotificationGroup is a named set of notification methods.
type NotificationGroup struct {
	Group         Group    `json:"group"`
	Notifications []uint64 `json:"notifications"`
}

// RequiredKeys implements Keyed.
func (NotificationGroup) RequiredKeys() []string { return []string{"group"} }

// NotificationGroupForm creates or updates a notification group.
type NotificationGroupForm struct {
	Name          string   `json:"name"`
	Notifications []uint64 `json:"notifications"`
}

// AlertRule triggers notifications when rules over server metrics match.
type AlertRule struct {
	ID                  uint64     `json:"id"`
	Name                string     `json:"name"`
	Rules               []RuleItem `json:"rules"`
	FailTriggerTasks    []uint64   `json:"fail_trigger_tasks"`
	RecoverTriggerTasks []uint64   `json:"recover_trigger_tasks"`
	NotificationGroupID uint64     `json:"notification_group_id"`
	TriggerMode         int        `json:"trigger_mode"`
	Enable              bool       `json:"enable"`
}

// RequiredKeys implements Keyed.
func (AlertRule) RequiredKeys() []string { return []string{"id", "name"} }

// RuleItem is a single condition inside an alert rule.
type RuleItem struct {
	Type          string          `json:"type"`
	Min           float64         `json:"min,omitempty"`
	Max           float64         `json:"max,omitempty"`
	CycleStart    *time.Time      `json:"cycle_start,omitempty"`
	CycleInterval uint64          `json:"cycle_interval,omitempty"`
	CycleUnit     string          `json:"cycle_unit,omitempty"`
	Duration      uint64          `json:"duration,omitempty"`
	Cover         uint64          `json:"cover"`
	Ignore        map[uint64]bool `json:"ignore,omitempty"`
}

// AlertRuleForm creates or updates an alert rule.
type AlertRuleForm struct {
	Name                string     `json:"name"`
	Rules               []RuleItem `json:"rules"`
	FailTriggerTasks    []uint64   `json:"fail_trigger_tasks"`
	RecoverTriggerTasks []uint64   `json:"recover_trigger_tasks"`
	NotificationGroupID uint64     `json:"notification_group_id"`
	TriggerMode         int        `json:"trigger_mode"`
	Enable              bool       `json:"enable"`
}

// Cron is a scheduled command run on agents.
type Cron struct {
	ID                  uint64    `json:"id"`
	Name                string    `json:"name"`
	TaskType            int       `json:"task_type"`
	Scheduler           string    `json:"scheduler"`
	Command             string    `json:"command"`
	Servers             []uint64  `json:"servers"`
	PushSuccessful      bool      `json:"push_successful"`
	NotificationGroupID uint64    `json:"notification_group_id"`
	Cover               int       `json:"cover"`
	LastExecutedAt      time.Time `json:"last_executed_at"`
	LastResult          bool      `json:"last_result"`
}

// RequiredKeys implements Keyed.
func (Cron) RequiredKeys() []string { return []string{"id", "name"} }

// CronForm creates or updates a cron task.
type CronForm struct {
	Name                string   `json:"name"`
	TaskType            int      `json:"task_type"`
	Scheduler           string   `json:"scheduler"`
	Command             string   `json:"command"`
	Servers             []uint64 `json:"servers"`
	Cover               int      `json:"cover"`
	PushSuccessful      bool     `json:"push_successful"`
	NotificationGroupID uint64   `json:"notification_group_id"`
}

// Service is a configured uptime check.
type Service struct {
	ID                  uint64          `json:"id"`
	Name                string          `json:"name"`
	Type                int             `json:"type"`
	Target              string          `json:"target"`
	Duration            uint64          `json:"duration"`
	Notify              bool            `json:"notify"`
	Cover               int             `json:"cover"`
	SkipServers         map[uint64]bool `json:"skip_servers,omitempty"`
	NotificationGroupID uint64          `json:"notification_group_id"`
	DisplayIndex        int             `json:"display_index"`
}

// RequiredKeys implements Keyed.
func (Service) RequiredKeys() []string { return []string{"id", "name"} }

// ServiceForm creates or updates an uptime check.
type ServiceForm struct {
	Name                string          `json:"name"`
	Type                int             `json:"type"`
	Target              string          `json:"target"`
	Duration            uint64          `json:"duration"`
	Notify              bool            `json:"notify"`
	Cover               int             `json:"cover"`
	SkipServers         map[uint64]bool `json:"skip_servers"`
	NotificationGroupID uint64          `json:"notification_group_id"`
	DisplayIndex        int             `json:"display_index"`
}

// ServiceOverview is the public uptime summary.
type ServiceOverview struct {
	Services map[string]ServiceStatus `json:"services"`
}

// ServiceStatus is the 30-day uptime record of one service.
type ServiceStatus struct {
	ServiceName string    `json:"service_name"`
	CurrentUp   uint64    `json:"current_up"`
	CurrentDown uint64    `json:"current_down"`
	TotalUp     uint64    `json:"total_up"`
	TotalDown   uint64    `json:"total_down"`
	Delay       []float64 `json:"delay"`
	Up          []uint64  `json:"up"`
	Down        []uint64  `json:"down"`
}

// RequiredKeys implements Keyed.
func (ServiceStatus) RequiredKeys() []string { return []string{"service_name"} }

// Uptime returns the 30-day availability in percent, or 0 with no samples.
func (s ServiceStatus) Uptime() float64 {
	return percent(s.TotalUp, s.TotalUp+s.TotalDown)
}

// DDNSProfile updates DNS records with a server's address.
type DDNSProfile struct {
	ID                 uint64   `json:"id"`
	Name               string   `json:"name"`
	Provider           string   `json:"provider"`
	Domains            []string `json:"domains"`
	EnableIPv4         bool     `json:"enable_ipv4"`
	EnableIPv6         bool     `json:"enable_ipv6"`
	MaxRetries         uint64   `json:"max_retries"`
	AccessID           string   `json:"access_id,omitempty"`
	AccessSecret       string   `json:"access_secret,omitempty"`
	WebhookURL         string   `json:"webhook_url,omitempty"`
	WebhookMethod      uint8    `json:"webhook_method,omitempty"`
	WebhookRequestBody string   `json:"webhook_request_body,omitempty"`
}

// RequiredKeys implements Keyed.
func (DDNSProfile) RequiredKeys() []string { return []string{"id", "name", "provider"} }

// DDNSForm creates or updates a DDNS profile.
type DDNSForm struct {
	Name               string   `json:"name"`
	Provider           string   `json:"provider"`
	Domains            []string `json:"domains"`
	EnableIPv4         bool     `json:"enable_ipv4"`
	EnableIPv6         bool     `json:"enable_ipv6"`
	MaxRetries         uint64   `json:"max_retries"`
	AccessID           string   `json:"access_id,omitempty"`
	AccessSecret       string   `json:"access_secret,omitempty"`
	WebhookURL         string   `json:"webhook_url,omitempty"`
	WebhookMethod      uint8    `json:"webhook_method,omitempty"`
	WebhookRequestBody string   `json:"webhook_request_body,omitempty"`
}

// NATProfile forwards a dashboard domain to a service behind an agent.
type NATProfile struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	ServerID uint64 `json:"server_id"`
	Host     string `json:"host"`
	Domain   string `json:"domain"`
	Enabled  bool   `json:"enabled"`
}

// RequiredKeys implements Keyed.
func (NATProfile) RequiredKeys() []string { return []string{"id", "name"} }

// NATForm creates or updates a NAT profile.
type NATForm struct {
	Name     string `json:"name"`
	ServerID uint64 `json:"server_id"`
	Host     string `json:"host"`
	Domain   string `json:"domain"`
	Enabled  bool   `json:"enabled"`
}

// LoginResult is the payload of a successful login or token refresh.
type LoginResult struct {
	Token  string    `json:"token"`
	Expire time.Time `json:"expire"`
}

// RequiredKeys implements Keyed.
func (LoginResult) RequiredKeys() []string { return []string{"token"} }

// Profile is the logged-in user.
type Profile struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	LoginIP  string `json:"login_ip,omitempty"`
}

// RequiredKeys implements Keyed.
func (Profile) RequiredKeys() []string { return []string{"username"} }

// Setting is the public dashboard configuration.
type Setting struct {
	Config  SiteConfig `json:"config"`
	Version string     `json:"version"`
}

// SiteConfig is the part of Setting shown to users.
type SiteConfig struct {
	SiteName    string `json:"site_name"`
	Language    string `json:"language"`
	CustomCode  string `json:"custom_code,omitempty"`
	InstallHost string `json:"install_host,omitempty"`
	TLS         bool   `json:"tls"`
}

// StreamFrame is one message of the live server websocket.
type StreamFrame struct {
	Now     int64    `json:"now"`
	Online  int      `json:"online"`
	Servers []Server `json:"servers"`
}

// RequiredKeys implements Keyed.
func (StreamFrame) RequiredKeys() []string { return []string{"servers"} }

// Time returns Now as a time.Time.
func (f StreamFrame) Time() time.Time {
	if f.Now == 0 {
		return time.Time{}
	}
	return time.UnixMilli(f.Now)
}
