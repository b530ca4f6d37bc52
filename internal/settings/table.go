package settings

// Defaults is the full declarative setting table. Every menu renders from
// this; there is no per-key handler code anywhere else.
func Defaults() []Descriptor {
	return []Descriptor{
		// -------- GENERAL --------
		{Key: "OWNER_ID", Group: GroupVar, Kind: KindInt, Default: int64(0), Sensitive: true, NoReset: true,
			Help: "Telegram user id of the bot owner. Requires restart."},
		{Key: "DATABASE_URL", Group: GroupVar, Kind: KindSecret, Default: "", Sensitive: true, NoReset: true,
			Help: "External database connection string. Requires restart."},
		{Key: "TELEGRAM_API", Group: GroupVar, Kind: KindInt, Default: int64(0), Sensitive: true, NoReset: true,
			Help: "api_id from my.telegram.org. Requires restart."},
		{Key: "TELEGRAM_HASH", Group: GroupVar, Kind: KindSecret, Default: "", Sensitive: true, NoReset: true,
			Help: "api_hash from my.telegram.org. Requires restart."},
		{Key: "AUTHORIZED_CHATS", Group: GroupVar, Kind: KindList, Default: []string{},
			Help: "Chat ids allowed to use the bot, space or comma separated."},
		{Key: "SUDO_USERS", Group: GroupVar, Kind: KindList, Default: []string{},
			Help: "User ids with sudo access."},
		{Key: "CMD_SUFFIX", Group: GroupVar, Kind: KindString, Default: "",
			Help: "Suffix appended to every bot command."},
		{Key: "STATUS_UPDATE_INTERVAL", Group: GroupVar, Kind: KindInt, Default: int64(15),
			Help: "Seconds between status message refreshes."},
		{Key: "STATUS_LIMIT", Group: GroupVar, Kind: KindInt, Default: int64(4),
			Help: "Tasks shown per status page."},
		{Key: "QUEUE_ALL", Group: GroupVar, Kind: KindInt, Default: int64(0),
			Help: "Total concurrent task limit, 0 for unlimited."},
		{Key: "QUEUE_DOWNLOAD", Group: GroupVar, Kind: KindInt, Default: int64(0),
			Help: "Concurrent download limit, 0 for unlimited."},
		{Key: "QUEUE_UPLOAD", Group: GroupVar, Kind: KindInt, Default: int64(0),
			Help: "Concurrent upload limit, 0 for unlimited."},
		{Key: "DEFAULT_UPLOAD", Group: GroupVar, Kind: KindEnum, Default: "rc", Options: []string{"gd", "rc"},
			Help: "Default upload destination: gd (Google Drive) or rc (rclone)."},
		{Key: "EXCLUDED_EXTENSIONS", Group: GroupVar, Kind: KindList, Default: []string{},
			Help: "File extensions skipped on upload."},
		{Key: "INCOMPLETE_TASK_NOTIFIER", Group: GroupVar, Kind: KindBool, Default: false,
			Help: "Notify chats about tasks interrupted by a restart."},
		{Key: "BASE_URL", Group: GroupVar, Kind: KindString, Default: "",
			Help: "Public base URL for the torrent file selector."},
		{Key: "BASE_URL_PORT", Group: GroupVar, Kind: KindInt, Default: int64(80),
			Help: "Port the web selector listens on."},
		{Key: "UPSTREAM_REPO", Group: GroupVar, Kind: KindString, Default: "",
			Help: "Git repo updated from on restart."},
		{Key: "UPSTREAM_BRANCH", Group: GroupVar, Kind: KindString, Default: "main",
			Help: "Branch used with UPSTREAM_REPO."},
		{Key: "NOTIFY_URLS", Group: GroupVar, Kind: KindList, Default: []string{},
			Help: "shoutrrr URLs notified when sensitive settings change."},
		{Key: "LEECH_SPLIT_SIZE", Group: GroupVar, Kind: KindSize, Default: int64(2097152000),
			Help: "Split size for leeched files, e.g. 2GB."},
		{Key: "EQUAL_SPLITS", Group: GroupVar, Kind: KindBool, Default: false,
			Help: "Split into equal parts instead of fixed size."},
		{Key: "AS_DOCUMENT", Group: GroupVar, Kind: KindBool, Default: false,
			Help: "Leech as document instead of media."},
		{Key: "MEDIA_GROUP", Group: GroupVar, Kind: KindBool, Default: false,
			Help: "Send split parts as a media group."},
		{Key: "LEECH_FILENAME_PREFIX", Group: GroupVar, Kind: KindString, Default: "",
			Help: "Prefix added to leeched file names."},
		{Key: "THUMBNAIL", Group: GroupVar, Kind: KindFile, Default: "", SideEffect: EffectThumb,
			Help: "Custom thumbnail image used for leeched media."},
		{Key: "USER_TRANSMISSION", Group: GroupVar, Kind: KindBool, Default: false,
			Help: "Leech through the user session instead of the bot session."},

		// -------- ARIA2 --------
		{Key: "ARIA2_ENABLED", Group: GroupAria2, Kind: KindBool, Default: true, SideEffect: EffectCascade,
			Help: "Enable the aria2 download engine."},
		{Key: "ARIA2_RPC_URL", Group: GroupAria2, Kind: KindString, Default: "http://localhost:6800/jsonrpc", SideEffect: EffectAria2,
			Help: "aria2 JSON-RPC endpoint."},
		{Key: "ARIA2_RPC_SECRET", Group: GroupAria2, Kind: KindSecret, Default: "", SideEffect: EffectAria2,
			Help: "aria2 RPC secret token."},
		{Key: "ARIA2_MAX_CONCURRENT_DOWNLOADS", Group: GroupAria2, Kind: KindInt, Default: int64(5), SideEffect: EffectAria2,
			Help: "Parallel downloads in aria2."},
		{Key: "ARIA2_MAX_CONNECTION_PER_SERVER", Group: GroupAria2, Kind: KindInt, Default: int64(16), SideEffect: EffectAria2,
			Help: "Connections per server."},
		{Key: "ARIA2_SPLIT", Group: GroupAria2, Kind: KindInt, Default: int64(16), SideEffect: EffectAria2,
			Help: "Segments per download."},
		{Key: "ARIA2_MIN_SPLIT_SIZE", Group: GroupAria2, Kind: KindSize, Default: int64(10485760), SideEffect: EffectAria2,
			Help: "Minimum segment size, e.g. 10MB."},
		{Key: "ARIA2_MAX_OVERALL_DOWNLOAD_LIMIT", Group: GroupAria2, Kind: KindSize, Default: int64(0), SideEffect: EffectAria2,
			Help: "Overall download speed cap, 0 for none."},
		{Key: "ARIA2_MAX_OVERALL_UPLOAD_LIMIT", Group: GroupAria2, Kind: KindSize, Default: int64(0), SideEffect: EffectAria2,
			Help: "Overall upload speed cap, 0 for none."},
		{Key: "ARIA2_SEED_RATIO", Group: GroupAria2, Kind: KindFloat, Default: 1.0, SideEffect: EffectAria2,
			Help: "Stop seeding at this ratio."},
		{Key: "ARIA2_SEED_TIME", Group: GroupAria2, Kind: KindInt, Default: int64(0), SideEffect: EffectAria2,
			Help: "Stop seeding after this many minutes."},
		{Key: "ARIA2_BT_STOP_TIMEOUT", Group: GroupAria2, Kind: KindInt, Default: int64(0), SideEffect: EffectAria2,
			Help: "Stop stalled BT downloads after seconds, 0 to keep."},
		{Key: "ARIA2_USER_AGENT", Group: GroupAria2, Kind: KindString, Default: "aria2/1.36.0", SideEffect: EffectAria2,
			Help: "HTTP user agent aria2 sends."},

		// -------- QBITTORRENT --------
		{Key: "QBIT_ENABLED", Group: GroupQbit, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable the qBittorrent engine."},
		{Key: "QBIT_BASE_URL", Group: GroupQbit, Kind: KindString, Default: "http://localhost:8090", SideEffect: EffectQbit,
			Help: "qBittorrent WebUI URL."},
		{Key: "QBIT_USERNAME", Group: GroupQbit, Kind: KindString, Default: "admin", SideEffect: EffectQbit,
			Help: "WebUI username."},
		{Key: "QBIT_PASSWORD", Group: GroupQbit, Kind: KindSecret, Default: "", SideEffect: EffectQbit,
			Help: "WebUI password."},
		{Key: "QBIT_MAX_ACTIVE_DOWNLOADS", Group: GroupQbit, Kind: KindInt, Default: int64(3), SideEffect: EffectQbit,
			Help: "max_active_downloads preference."},
		{Key: "QBIT_MAX_ACTIVE_TORRENTS", Group: GroupQbit, Kind: KindInt, Default: int64(5), SideEffect: EffectQbit,
			Help: "max_active_torrents preference."},
		{Key: "QBIT_MAX_RATIO", Group: GroupQbit, Kind: KindFloat, Default: -1.0, SideEffect: EffectQbit,
			Help: "Share ratio limit, -1 for global default."},
		{Key: "QBIT_MAX_SEEDING_TIME", Group: GroupQbit, Kind: KindInt, Default: int64(-1), SideEffect: EffectQbit,
			Help: "Seeding minutes limit, -1 for global default."},
		{Key: "QBIT_DL_LIMIT", Group: GroupQbit, Kind: KindSize, Default: int64(0), SideEffect: EffectQbit,
			Help: "Download speed cap, 0 for none."},
		{Key: "QBIT_UP_LIMIT", Group: GroupQbit, Kind: KindSize, Default: int64(0), SideEffect: EffectQbit,
			Help: "Upload speed cap, 0 for none."},

		// -------- SABNZBD --------
		{Key: "SABNZBD_ENABLED", Group: GroupSabnzbd, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable the Sabnzbd NZB engine."},
		{Key: "SABNZBD_BASE_URL", Group: GroupSabnzbd, Kind: KindString, Default: "http://localhost:8070", SideEffect: EffectSabnzbd,
			Help: "Sabnzbd API URL."},
		{Key: "SABNZBD_API_KEY", Group: GroupSabnzbd, Kind: KindSecret, Default: "", SideEffect: EffectSabnzbd,
			Help: "Sabnzbd API key."},
		{Key: "SABNZBD_BANDWIDTH_MAX", Group: GroupSabnzbd, Kind: KindSize, Default: int64(0), SideEffect: EffectSabnzbd,
			Help: "Bandwidth cap pushed to Sabnzbd, 0 for none."},
		{Key: "SABNZBD_CACHE_LIMIT", Group: GroupSabnzbd, Kind: KindSize, Default: int64(536870912), SideEffect: EffectSabnzbd,
			Help: "Article cache limit."},
		{Key: "SABNZBD_DIRECT_UNPACK", Group: GroupSabnzbd, Kind: KindBool, Default: true, SideEffect: EffectSabnzbd,
			Help: "Unpack while downloading."},

		// -------- JDOWNLOADER --------
		{Key: "JD_ENABLED", Group: GroupJD, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable the JDownloader engine."},
		{Key: "JD_EMAIL", Group: GroupJD, Kind: KindString, Default: "", SideEffect: EffectJD,
			Help: "my.jdownloader.org account email."},
		{Key: "JD_PASS", Group: GroupJD, Kind: KindSecret, Default: "", SideEffect: EffectJD,
			Help: "my.jdownloader.org account password."},

		// -------- RCLONE --------
		{Key: "RCLONE_ENABLED", Group: GroupRclone, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable rclone uploads and serving."},
		{Key: "RCLONE_PATH", Group: GroupRclone, Kind: KindPath, Default: "",
			Help: "Default rclone destination, e.g. remote:folder."},
		{Key: "RCLONE_FLAGS", Group: GroupRclone, Kind: KindString, Default: "",
			Help: "Extra flags passed to every rclone call."},
		{Key: "RCLONE_SERVE_URL", Group: GroupRclone, Kind: KindString, Default: "", SideEffect: EffectRcloneServe,
			Help: "Public URL of the rclone serve endpoint."},
		{Key: "RCLONE_SERVE_PORT", Group: GroupRclone, Kind: KindInt, Default: int64(8080), SideEffect: EffectRcloneServe,
			Help: "Port rclone serve binds to. Changing it restarts the server."},
		{Key: "RCLONE_SERVE_USER", Group: GroupRclone, Kind: KindString, Default: "", SideEffect: EffectRcloneServe,
			Help: "Basic auth user for rclone serve."},
		{Key: "RCLONE_SERVE_PASS", Group: GroupRclone, Kind: KindSecret, Default: "", SideEffect: EffectRcloneServe,
			Help: "Basic auth password for rclone serve."},

		// -------- MEGA --------
		{Key: "MEGA_ENABLED", Group: GroupMega, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable the MEGA engine."},
		{Key: "MEGA_EMAIL", Group: GroupMega, Kind: KindString, Default: "",
			Help: "MEGA account email."},
		{Key: "MEGA_PASSWORD", Group: GroupMega, Kind: KindSecret, Default: "",
			Help: "MEGA account password."},
		{Key: "MEGA_UPLOAD_PUBLIC", Group: GroupMega, Kind: KindBool, Default: false, ExclusiveWith: "mega_privacy",
			Help: "Uploads get a public link."},
		{Key: "MEGA_UPLOAD_PRIVATE", Group: GroupMega, Kind: KindBool, Default: true, ExclusiveWith: "mega_privacy",
			Help: "Uploads stay private."},
		{Key: "MEGA_UPLOAD_UNLISTED", Group: GroupMega, Kind: KindBool, Default: false, ExclusiveWith: "mega_privacy",
			Help: "Uploads get an unlisted link."},

		// -------- WATERMARK --------
		{Key: "WATERMARK_ENABLED", Group: GroupWatermark, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Stamp a watermark on processed video."},
		{Key: "WATERMARK_KEY", Group: GroupWatermark, Kind: KindString, Default: "",
			Help: "Watermark text."},
		{Key: "WATERMARK_POSITION", Group: GroupWatermark, Kind: KindEnum, Default: "top_left",
			Options: []string{"top_left", "top_right", "bottom_left", "bottom_right", "center"},
			Help: "Corner the watermark is placed in."},
		{Key: "WATERMARK_SIZE", Group: GroupWatermark, Kind: KindInt, Default: int64(20),
			Help: "Font size of the text watermark."},
		{Key: "WATERMARK_OPACITY", Group: GroupWatermark, Kind: KindFloat, Default: 1.0,
			Help: "Opacity between 0.0 and 1.0."},
		{Key: "WATERMARK_THREADS", Group: GroupWatermark, Kind: KindInt, Default: int64(4),
			Help: "ffmpeg threads used for watermarking."},
		{Key: "IMAGE_WATERMARK", Group: GroupWatermark, Kind: KindFile, Default: "", SideEffect: EffectThumb,
			Help: "Image stamped instead of text, stored per user."},
		{Key: "IMAGE_WATERMARK_OPACITY", Group: GroupWatermark, Kind: KindFloat, Default: 1.0,
			Help: "Opacity of the image watermark."},

		// -------- MERGE --------
		{Key: "MERGE_ENABLED", Group: GroupMerge, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable merging multiple files into one."},
		{Key: "MERGE_OUTPUT_FORMAT", Group: GroupMerge, Kind: KindEnum, Default: "mkv", Options: []string{"mkv", "mp4"},
			Help: "Container for merged output."},
		{Key: "MERGE_THREAD_NUMBER", Group: GroupMerge, Kind: KindInt, Default: int64(4),
			Help: "ffmpeg threads used when merging."},
		{Key: "MERGE_REMOVE_ORIGINAL", Group: GroupMerge, Kind: KindBool, Default: true,
			Help: "Delete source files after a successful merge."},
		{Key: "MERGE_PRIORITY", Group: GroupMerge, Kind: KindInt, Default: int64(1),
			Help: "Order relative to other post-processing steps."},
		{Key: "CONCAT_DEMUXER", Group: GroupMerge, Kind: KindBool, Default: true,
			Help: "Use the concat demuxer instead of filter_complex."},

		// -------- STREAMRIP --------
		{Key: "STREAMRIP_ENABLED", Group: GroupStreamrip, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Enable streaming-music downloads."},
		{Key: "STREAMRIP_QUALITY", Group: GroupStreamrip, Kind: KindEnum, Default: "3", Options: []string{"0", "1", "2", "3", "4"},
			Help: "Quality tier, source dependent."},
		{Key: "STREAMRIP_CODEC", Group: GroupStreamrip, Kind: KindEnum, Default: "flac", Options: []string{"flac", "alac", "mp3", "aac", "ogg"},
			Help: "Codec converted to after download."},
		{Key: "STREAMRIP_CONCURRENT_DOWNLOADS", Group: GroupStreamrip, Kind: KindInt, Default: int64(4),
			Help: "Parallel track downloads."},
		{Key: "STREAMRIP_QOBUZ_EMAIL", Group: GroupStreamrip, Kind: KindString, Default: "",
			Help: "Qobuz account email."},
		{Key: "STREAMRIP_QOBUZ_PASSWORD", Group: GroupStreamrip, Kind: KindSecret, Default: "",
			Help: "Qobuz account password."},
		{Key: "STREAMRIP_FILENAME_TEMPLATE", Group: GroupStreamrip, Kind: KindString, Default: "{artist} - {title}",
			Help: "Track filename template."},

		// -------- METADATA --------
		{Key: "METADATA_ENABLED", Group: GroupMetadata, Kind: KindBool, Default: false, SideEffect: EffectCascade,
			Help: "Rewrite media metadata on processed files."},
		{Key: "METADATA_TITLE", Group: GroupMetadata, Kind: KindString, Default: "",
			Help: "Title tag written to output files."},
		{Key: "METADATA_AUTHOR", Group: GroupMetadata, Kind: KindString, Default: "",
			Help: "Author/artist tag written to output files."},
		{Key: "METADATA_COMMENT", Group: GroupMetadata, Kind: KindString, Default: "",
			Help: "Comment tag written to output files."},
		{Key: "ADD_PRESERVE_TRACKS", Group: GroupMetadata, Kind: KindBool, Default: true, ExclusiveWith: "track_mode",
			Help: "Keep existing audio/subtitle tracks when adding new ones."},
		{Key: "ADD_REPLACE_TRACKS", Group: GroupMetadata, Kind: KindBool, Default: false, ExclusiveWith: "track_mode",
			Help: "Replace existing tracks when adding new ones."},
	}
}
