package ui

import (
	"fmt"
	"io"
)

// PrintWelcome выводит приветствие
func PrintWelcome(w io.Writer, persistent, ai bool) {
	fmt.Fprintln(w, ColorBold+IconSearch+" Smart Locator v1.0.0"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Генерация и оценка стабильности локаторов для Playwright и Selenium"+ColorReset)
	fmt.Fprintln(w, ColorGray+"История запусков: "+ColorReset+OnOff(persistent)+ColorGray+"  LLM: "+ColorReset+OnOff(ai))
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" задайте порог "+ColorYellow+"min high"+ColorReset+" и запустите "+ColorYellow+"scan <url>"+ColorReset+", чтобы получить только стабильные локаторы")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"scan"+ColorReset+" <url|файл|html> - Сгенерировать локаторы")
	fmt.Fprintln(w, "  "+ColorGreen+"min"+ColorReset+" <high|medium|low> - Порог стабильности")
	fmt.Fprintln(w, "  "+ColorGreen+"fw"+ColorReset+" <playwright,selenium> - Фреймворки")
	fmt.Fprintln(w, "  "+ColorGreen+"js"+ColorReset+" on|off            - JS-рендеринг в браузере")
	fmt.Fprintln(w, "  "+ColorGreen+"validate"+ColorReset+" on|off      - Проверка на живой странице")
	fmt.Fprintln(w, "  "+ColorGreen+"ai"+ColorReset+" on|off            - Подсказки LLM")
	fmt.Fprintln(w, "  "+ColorGreen+"out"+ColorReset+" <dir>            - Каталог для файлов (пусто - не писать)")
	fmt.Fprintln(w, "  "+ColorGreen+"class"+ColorReset+" <Name>         - Имя класса Page Object")
	fmt.Fprintln(w, "  "+ColorGreen+"settings"+ColorReset+"             - Текущие настройки")
	fmt.Fprintln(w, "  "+ColorGreen+"runs"+ColorReset+"                 - История запусков")
	fmt.Fprintln(w, "  "+ColorGreen+"show"+ColorReset+" <id>            - Локаторы запуска")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"                - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                 - Выход")
	fmt.Fprintln(w)
}
