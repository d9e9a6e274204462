package cmd

var (
	configPath string

	host string
	port int

	chapterID         string
	downloadDirectory string
	format            string
	naming            string
)

func initRootFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"specifies the path to your config file",
	)
}

func initServeFlags() {
	serveCmd.Flags().StringVar(
		&host,
		"host",
		"",
		"overrides the address the server listens on",
	)
	serveCmd.Flags().IntVarP(
		&port,
		"port",
		"p",
		0,
		"overrides the port the server listens on",
	)
}

func initDownloadFlags() {
	downloadCmd.Flags().StringVarP(
		&chapterID,
		"chapter",
		"C",
		"",
		"specifies the id of the chapter you want to download",
	)
	downloadCmd.Flags().StringVarP(
		&downloadDirectory,
		"downloadDirectory",
		"d",
		".",
		"specifies the directory where you want to save your downloads to",
	)
	downloadCmd.Flags().StringVarP(
		&format,
		"format",
		"f",
		"cbz",
		"specifies the archive format, cbz or pdf",
	)
	downloadCmd.Flags().StringVarP(
		&naming,
		"naming",
		"n",
		"",
		"specifies the naming template you want to use for naming chapters, defaults to the configured one",
	)

	_ = downloadCmd.MarkFlagRequired("chapter")
}
