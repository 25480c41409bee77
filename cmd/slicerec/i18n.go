// Package main provides localization for the slicerec CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":    "入力",
		"Output":   "出力先",
		"Encoding": "エンコード",
		"Debug":    "デバッグ",
		"Logging":  "ログ",

		// Root command
		"Record raw video sources into encoded slices":                                                                                                              "生の映像ソースをエンコード済みスライスとして記録",
		"slicerec buffers raw frames per source, cuts them into slices on resolution changes or when a size limit is reached, and encodes every slice with ffmpeg.": "slicerecはソースごとに生フレームをバッファし、解像度の変化またはサイズ上限でスライスに分割して、各スライスをffmpegでエンコードします。",

		// Record command
		"Record frame sources into encoded slices": "フレームソースをエンコード済みスライスとして記録",

		// Version command
		"Show version information": "バージョン情報を表示",
		"slicerec version %s":      "slicerec バージョン %s",

		// Input flags
		"YAML configuration file":                       "YAML設定ファイル",
		"Raw yuv420p input file (repeatable)":           "生のyuv420p入力ファイル（複数指定可）",
		"Frame size of the inputs (WxH)":                "入力のフレームサイズ（WxH）",
		"Frame rate of the inputs":                      "入力のフレームレート",
		"Stop each source after this many frames":       "各ソースをこのフレーム数で停止",
		"Switch test pattern resolution every N frames": "Nフレームごとにテストパターンの解像度を切り替え",
		"Deliver frames in real time":                   "フレームを実時間で供給",

		// Output flags
		"Directory for encoded slices":                                                    "エンコード済みスライスの出力ディレクトリ",
		"Directory for raw slice data":                                                    "生スライスデータのディレクトリ",
		"Write a session summary to this path (- for stdout, JSON when it ends in .json)": "セッションサマリーをこのパスに出力（-で標準出力、.jsonならJSON形式）",
		"Print a JSON line to stdout for every encoded slice":                             "エンコードされたスライスごとにJSON行を標準出力に表示",

		// Encoding flags
		"Per-source byte limit of a slice":                      "ソースごとのスライスのバイト上限",
		"Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)": "ffmpegのパス（未指定時はFFMPEG_PATH、次にPATHを使用）",
		"Abort an encode after this duration (0 = no limit)":    "この時間を超えたエンコードを中止（0 = 無制限）",
		"Do not inspect encoded files":                          "エンコード済みファイルを検査しない",

		// Debug flags
		"Save slice descriptors and previews":                   "スライス記述子とプレビューを保存",
		"Directory for debug output":                            "デバッグ出力先ディレクトリ",
		"Serve Prometheus metrics on this address (e.g. :9090)": "このアドレスでPrometheusメトリクスを公開（例: :9090）",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Summary labels
		"Recording Summary":       "録画サマリー",
		"Item":                    "項目",
		"Value":                   "値",
		"Session Directory":       "セッションディレクトリ",
		"Output Directory":        "出力ディレクトリ",
		"Sources":                 "ソース数",
		"Frames":                  "フレーム数",
		"Duration":                "時間",
		"Slices Encoded":          "エンコード済みスライス",
		"Slices Failed":           "失敗したスライス",
		"Total Size":              "合計サイズ",
		"Interrupted":             "中断",
		"Yes":                     "はい",
		"Settings":                "設定",
		"Max Slice Size":          "スライス最大サイズ",
		"Encode Timeout":          "エンコードタイムアウト",
		"None":                    "なし",
		"Slices":                  "スライス",
		"No slices were encoded.": "エンコードされたスライスはありません。",
		"Slice":                   "スライス",
		"File":                    "ファイル",
		"Resolution":              "解像度",
		"Frame Rate":              "フレームレート",
		"Size":                    "サイズ",
		"Codec":                   "コーデック",
		"N/A":                     "N/A",
		"Generated by":            "生成:",
	})
}
