package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level messages (info)
		"Recording %d sources into %s":              "%d 個のソースを %s に録画中",
		"Interrupted, shutting down...":             "中断されました。シャットダウン中...",
		"Sources stopped by cancellation":           "キャンセルによりソースを停止しました",
		"Session finished: %d of %d slices encoded": "セッション終了: %d / %d スライスをエンコードしました",
		"Summary saved to %s":                       "サマリーを %s に保存しました",
		"Serving metrics on %s":                     "%s でメトリクスを公開中",
		"Starting %d sources":                       "%d 個のソースを開始します",

		// Recorder
		"Recording started with %d sources into %s":      "%d 個のソースで録画を開始しました (%s)",
		"Recording stopped, next slice id %d":            "録画を停止しました。次のスライスID %d",
		"Finalized slice %d into %s":                     "スライス %d を %s に確定しました",
		"Boundary from source %d (%s) already finalized": "ソース %d の境界 (%s) は確定済みです",
		"Slice %d ready: %s":                             "スライス %d の準備ができました: %s",
		"Dropping frame from unknown source %d":          "不明なソース %d のフレームを破棄します",
		"Dropping frame from source %d: %s":              "ソース %d のフレームを破棄します: %s",

		// Buffer
		"Source %d: slice sealed (%s), %d frames, %d bytes": "ソース %d: スライスを確定 (%s), %d フレーム, %d バイト",

		// Writer
		"Dumped file %s (%d frames) in %d ms": "%s を書き出しました (%d フレーム, %d ms)",

		// Encoder
		"Encoding slice %d (%dx%d, %d frames)": "スライス %d をエンコード中 (%dx%d, %d フレーム)",
		"Encoded slice %d in %d ms":            "スライス %d を %d ms でエンコードしました",
		"Using ffmpeg at %s":                   "ffmpeg を使用: %s",
		"Running %s %v":                        "実行中: %s %v",

		// Sources
		"Source %s finished after %d frames": "ソース %s は %d フレームで終了しました",
		"Pattern finished after %d frames":   "テストパターンは %d フレームで終了しました",

		// Warnings
		"Slice %d encoded but raw data was kept: %s":        "スライス %d はエンコードされましたが生データが残っています: %s",
		"Slice %d encoded as %dx%d, expected %dx%d":         "スライス %d は %dx%d でエンコードされました (期待値 %dx%d)",
		"Failed to probe %s: %s":                            "%s の検査に失敗しました: %s",
		"Failed to save debug descriptor for slice %d: %s":  "スライス %d のデバッグ記述子の保存に失敗しました: %s",
		"Failed to save preview for slice %d source %d: %s": "スライス %d ソース %d のプレビュー保存に失敗しました: %s",
		"Ignoring truncated trailing frame in %s":           "%s の末尾の不完全なフレームを無視します",
		"Raw data of %d failed slices kept in %s":           "失敗した %d スライスの生データを %s に残しました",
		"Could not remove session directory %s: %s":         "セッションディレクトリ %s を削除できませんでした: %s",

		// Errors
		"Slice %d abandoned: %s":        "スライス %d を破棄しました: %s",
		"Slice %d failed to encode: %s": "スライス %d のエンコードに失敗しました: %s",
		"Source %d failed: %s":          "ソース %d でエラーが発生しました: %s",
		"Failed to write summary: %s":   "サマリーの書き込みに失敗しました: %s",
		"Metrics server failed: %s":     "メトリクスサーバーでエラーが発生しました: %s",
	})
}
